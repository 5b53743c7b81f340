package main

import "time"

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	MessagesPerSecond float64       `env:"MESSAGES_PER_SECOND,default=5"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	CensoredWords             []string `env:"CENSORED_WORDS"`
	ModerationCharReplacement rune     `env:"MODERATION_CHARACTER_REPLACEMENT,default=42"`

	// Backplane settings. Leaving NodeID empty runs the server as a
	// single node without ZeroMQ sockets.
	NodeID            string   `env:"NODE_ID"`
	BackplanePublish  string   `env:"BACKPLANE_PUBLISH_ADDR"`
	BackplanePeers    []string `env:"BACKPLANE_PEER_ADDRS"`
}
