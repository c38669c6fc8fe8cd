// Package backend is the port to machine translation services.
//
// A Translator turns one string from a source locale into a target locale.
// Implementations classify their failures as TransientError (worth
// retrying, optionally with a server supplied delay) or PermanentError.
// OpenAI and Gemini clients are provided, and Breaker wraps any Translator in
// a circuit breaker.
package backend
