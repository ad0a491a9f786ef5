package database

import "testing"

func TestConfig_DSN(t *testing.T) {
	c := &Config{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "budget", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=budget sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConfig_URLEscapesCredentials(t *testing.T) {
	c := &Config{Host: "db", Port: "5432", User: "u", Password: "p@ss/word", DBName: "budget", SSLMode: "require"}
	want := "postgres://u:p%40ss%2Fword@db:5432/budget?sslmode=require"
	if got := c.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
