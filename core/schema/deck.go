package schema

// Card is the tuple handed to the package-assembly collaborator: one audio
// clip, an optional still frame and the sentence text shown on the answer.
type Card struct {
	AudioFile string   `json:"audioFile"`
	ImageFile string   `json:"imageFile,omitempty"`
	Sentence  string   `json:"sentence"`
	Tags      []string `json:"tags,omitempty"`
}

// NoteModel describes the Anki note type the helper script builds: field
// names, card templates (question/answer HTML) and styling.
type NoteModel struct {
	Name           string `json:"name" yaml:"name"`
	QuestionFormat string `json:"questionFormat" yaml:"question_format"`
	AnswerFormat   string `json:"answerFormat" yaml:"answer_format"`
	CSS            string `json:"css" yaml:"css"`
}

type DeckMode string

const (
	DeckModeCombined DeckMode = "combined"
	DeckModeSeparate DeckMode = "separate"
)

// DeckResult describes one built package.
type DeckResult struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	CardCount int    `json:"card_count"`
}
