// Package models lists the chat models offered by an OpenAI compatible
// server, so users can pick a value for --model.
package models
