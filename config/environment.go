package config

import "os"

type Environment struct {
	IsDevelopment bool
	ClientOrigin  string
}

var Env Environment

func init() {
	// Get the browser client origin from the environment
	origin := os.Getenv("CLIENT_ORIGIN")

	// If no origin is set, we're in development
	isDev := origin == ""
	if isDev {
		origin = "http://localhost:3000"
	}

	Env = Environment{
		IsDevelopment: isDev,
		ClientOrigin:  origin,
	}
}
