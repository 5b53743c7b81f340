package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"peerchat/repositories"
)

// Small CLI to eyeball what the server actually wrote: users, chats,
// pair index, inboxes and the per-chat message log.
func main() {
	dbPath := flag.String("db", "/tmp/peerchat", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (user:, chat:, pair:, inbox:, msg:)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				kind, timestamp, detail := describe(key, v)
				table.Append([]string{key, kind, timestamp, detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// describe decodes the value according to the key namespace. Unknown
// or malformed documents still render, just without detail.
func describe(key string, value []byte) (kind, timestamp, detail string) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var doc repositories.DiskMessage
		if err := json.Unmarshal(value, &doc); err != nil {
			return "MESSAGE", "", fmt.Sprintf("undecodable: %v", err)
		}
		read := "unread"
		if doc.IsRead {
			read = "read"
		}
		return "MESSAGE",
			time.Unix(0, doc.CreatedAt).UTC().Format("15:04:05"),
			fmt.Sprintf("from=%s %s %q", shortID(doc.SenderID), read, doc.Content)

	case strings.HasPrefix(key, "chat:"):
		var doc repositories.DiskChat
		if err := json.Unmarshal(value, &doc); err != nil {
			return "CHAT", "", fmt.Sprintf("undecodable: %v", err)
		}
		return "CHAT",
			time.Unix(0, doc.CreatedAt).UTC().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%s <-> %s", shortID(doc.Participants[0]), shortID(doc.Participants[1]))

	case strings.HasPrefix(key, "user:"):
		var doc repositories.DiskUser
		if err := json.Unmarshal(value, &doc); err != nil {
			return "USER", "", fmt.Sprintf("undecodable: %v", err)
		}
		return "USER", "", doc.Username

	case strings.HasPrefix(key, "pair:"), strings.HasPrefix(key, "username:"):
		return "INDEX", "", string(value)

	case strings.HasPrefix(key, "inbox:"):
		return "INBOX", "", ""
	}
	return "UNKNOWN", "", ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
