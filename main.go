package main

import (
	"discord-archiver/bot"
	"discord-archiver/handlers"
)

func main() {
	bot.Run(handlers.Register)
}
