package anki

// Anki's .apkg container is built by the reference genanki library rather
// than reimplemented here. The helper script is embedded so the binary
// stays self-contained; only a python3 with genanki installed is required
// at runtime.

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/schema"
)

//go:embed assets/genanki_build.py
var buildScript []byte

// DefaultCSS styles both card faces.
const DefaultCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}`

// DefaultNoteModel is the three-field listening card: audio plus still on
// the front, the transcribed sentence on the back.
func DefaultNoteModel() schema.NoteModel {
	return schema.NoteModel{
		Name:           "LocalSRS Listening Card",
		QuestionFormat: "{{Audio}}<br>{{Image}}",
		AnswerFormat:   `{{FrontSide}}<hr id="answer">{{Sentence}}`,
		CSS:            DefaultCSS,
	}
}

// Builder shells out to python3 + genanki to write .apkg files.
type Builder struct {
	// Python overrides the interpreter, defaulting to python3 on PATH.
	Python string
}

type buildJob struct {
	DeckName   string        `json:"deck_name"`
	OutputPath string        `json:"output_path"`
	Model      noteModelJob  `json:"model"`
	Cards      []schema.Card `json:"cards"`
}

type noteModelJob struct {
	Name           string `json:"name"`
	QuestionFormat string `json:"question_format"`
	AnswerFormat   string `json:"answer_format"`
	CSS            string `json:"css"`
}

type buildResult struct {
	Cards int    `json:"cards"`
	Path  string `json:"path"`
}

func (b *Builder) python() string {
	if b.Python != "" {
		return b.Python
	}
	return "python3"
}

// BuildDeck packages cards into an .apkg at outputPath.
func (b *Builder) BuildDeck(ctx context.Context, deckName string, model schema.NoteModel, cards []schema.Card, outputPath string) (*schema.DeckResult, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck %q has no cards", deckName)
	}

	script, err := os.CreateTemp("", "genanki-*.py")
	if err != nil {
		return nil, fmt.Errorf("write helper script: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.Write(buildScript); err != nil {
		script.Close()
		return nil, fmt.Errorf("write helper script: %w", err)
	}
	script.Close()

	job, err := json.Marshal(buildJob{
		DeckName:   deckName,
		OutputPath: outputPath,
		Model: noteModelJob{
			Name:           model.Name,
			QuestionFormat: model.QuestionFormat,
			AnswerFormat:   model.AnswerFormat,
			CSS:            model.CSS,
		},
		Cards: cards,
	})
	if err != nil {
		return nil, err
	}

	xlog.Info("packaging deck", "deck", deckName, "cards", len(cards), "output", outputPath)

	cmd := exec.CommandContext(ctx, b.python(), script.Name())
	cmd.Stdin = bytes.NewReader(job)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("genanki failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run genanki helper: %w", err)
	}

	var result buildResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parse genanki output: %w\n%s", err, string(out))
	}

	return &schema.DeckResult{Name: deckName, Path: result.Path, CardCount: result.Cards}, nil
}
