package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to DevHabit CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
