package store_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mudler/LocalSRS/core/store"
)

var _ = Describe("Store", func() {
	var (
		dir string
		s   *store.Store
		err error
	)

	BeforeEach(func() {
		dir, err = os.MkdirTemp("", "deckstore")
		Expect(err).To(BeNil())
		s, err = store.Open(filepath.Join(dir, "history.db"))
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		s.Close()
		os.RemoveAll(dir)
	})

	It("assigns an id on create and finds the record again", func() {
		rec := &store.DeckRecord{
			JobID:     "job-1",
			SessionID: "sess-1",
			DeckName:  "日本語のニュース",
			Path:      "/tmp/deck.apkg",
			CardCount: 42,
		}
		Expect(s.RecordDeck(rec)).To(Succeed())
		Expect(rec.ID).ToNot(BeEmpty())

		got, err := s.GetDeck(rec.ID)
		Expect(err).To(BeNil())
		Expect(got).ToNot(BeNil())
		Expect(got.DeckName).To(Equal("日本語のニュース"))
		Expect(got.CardCount).To(Equal(42))
		Expect(got.CreatedAt).ToNot(BeZero())
	})

	It("returns nil for an unknown id", func() {
		got, err := s.GetDeck("missing")
		Expect(err).To(BeNil())
		Expect(got).To(BeNil())
	})

	It("lists decks newest-first with a limit", func() {
		for _, name := range []string{"first", "second", "third"} {
			Expect(s.RecordDeck(&store.DeckRecord{
				JobID: "j", SessionID: "s", DeckName: name, Path: "/tmp/" + name,
			})).To(Succeed())
		}

		all, err := s.ListDecks(0)
		Expect(err).To(BeNil())
		Expect(all).To(HaveLen(3))

		two, err := s.ListDecks(2)
		Expect(err).To(BeNil())
		Expect(two).To(HaveLen(2))
	})

	It("filters decks by session", func() {
		Expect(s.RecordDeck(&store.DeckRecord{JobID: "j1", SessionID: "a", DeckName: "A", Path: "/a"})).To(Succeed())
		Expect(s.RecordDeck(&store.DeckRecord{JobID: "j2", SessionID: "b", DeckName: "B", Path: "/b"})).To(Succeed())

		recs, err := s.DecksForSession("a")
		Expect(err).To(BeNil())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].DeckName).To(Equal("A"))
	})

	It("survives reopening the same file", func() {
		Expect(s.RecordDeck(&store.DeckRecord{JobID: "j", SessionID: "s", DeckName: "kept", Path: "/k"})).To(Succeed())
		Expect(s.Close()).To(Succeed())

		s, err = store.Open(filepath.Join(dir, "history.db"))
		Expect(err).To(BeNil())

		recs, err := s.ListDecks(0)
		Expect(err).To(BeNil())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].DeckName).To(Equal("kept"))
	})
})
