package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mudler/xlog"

	cliContext "github.com/mudler/LocalSRS/core/cli/context"
	"github.com/mudler/LocalSRS/core/session"
)

type SessionsCMDFlags struct {
	SessionsPath string `env:"LOCALSRS_SESSIONS_PATH,SESSIONS_PATH" type:"path" default:"${basepath}/sessions" help:"Path holding the per-session caches and media" group:"storage"`
}

type SessionsList struct {
	Search string `help:"Only show sessions whose id or cached videos fuzzy-match this term"`

	SessionsCMDFlags `embed:""`
}

type SessionsShow struct {
	ID string `arg:"" help:"Session id to inspect"`

	SessionsCMDFlags `embed:""`
}

type SessionsClean struct {
	ID string `arg:"" help:"Session id to delete"`

	SessionsCMDFlags `embed:""`
}

type SessionsSweep struct {
	MaxAge float64 `env:"LOCALSRS_MAX_SESSION_AGE_HOURS" default:"1" help:"Hours of inactivity after which a session expires"`

	SessionsCMDFlags `embed:""`
}

type SessionsCMD struct {
	List  SessionsList  `cmd:"" help:"List sessions with their age and cached videos" default:"withargs"`
	Show  SessionsShow  `cmd:"" help:"Show one session's cached videos and disk footprint"`
	Clean SessionsClean `cmd:"" help:"Delete one session and all of its media"`
	Sweep SessionsSweep `cmd:"" help:"Delete every session older than the expiry threshold"`
}

func (sl *SessionsList) Run(ctx *cliContext.Context) error {
	ids, err := session.List(sl.SessionsPath)
	if err != nil {
		return err
	}

	for _, id := range ids {
		sess := session.Open(sl.SessionsPath, id)
		videos := sess.Videos()
		if sl.Search != "" && !matchesSession(sl.Search, id, videos) {
			continue
		}
		fmt.Printf(" * %s (%.1fh idle, %d video(s): %s)\n", id, sess.AgeHours(), len(videos), strings.Join(videos, ", "))
	}
	return nil
}

func matchesSession(term, id string, videos []string) bool {
	if fuzzy.MatchNormalizedFold(term, id) {
		return true
	}
	for _, video := range videos {
		if fuzzy.MatchNormalizedFold(term, video) {
			return true
		}
	}
	return false
}

func (ss *SessionsShow) Run(ctx *cliContext.Context) error {
	sess := session.Open(ss.SessionsPath, ss.ID)
	if _, err := os.Stat(sess.Dir()); err != nil {
		return fmt.Errorf("session not found: %s", ss.ID)
	}

	fmt.Printf("Session %s\n", sess.ID())
	fmt.Printf("  directory: %s\n", sess.Dir())
	fmt.Printf("  idle:      %.1fh\n", sess.AgeHours())
	fmt.Printf("  disk:      %.1f MiB\n", float64(sess.DiskBytes())/1024/1024)
	for _, video := range sess.Videos() {
		if entry, ok := sess.GetTranscript(video); ok {
			fmt.Printf("  video %s: %d words, saved %s\n", video, len(entry.Words), entry.LastSavedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func (sc *SessionsClean) Run(ctx *cliContext.Context) error {
	sess := session.Open(sc.SessionsPath, sc.ID)
	if _, err := os.Stat(sess.Dir()); err != nil {
		return fmt.Errorf("session not found: %s", sc.ID)
	}
	if err := sess.Cleanup(); err != nil {
		return err
	}
	xlog.Info("session deleted", "session", sc.ID)
	return nil
}

func (sw *SessionsSweep) Run(ctx *cliContext.Context) error {
	swept, kept := session.SweepExpired(sw.SessionsPath, sw.MaxAge)
	for _, id := range swept {
		fmt.Printf(" - %s (swept)\n", id)
	}
	for _, id := range kept {
		fmt.Printf(" * %s (kept)\n", id)
	}
	fmt.Printf("%d swept, %d kept\n", len(swept), len(kept))
	return nil
}
