package session_test

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mudler/LocalSRS/core/schema"
	"github.com/mudler/LocalSRS/core/session"
)

func words(texts ...string) []schema.Word {
	w := make([]schema.Word, len(texts))
	for i, t := range texts {
		w[i] = schema.Word{Text: t, Start: float64(i), End: float64(i) + 0.5, Speaker: "A"}
	}
	return w
}

// backdate rewrites the activity marker as if the session was last used
// age ago.
func backdate(root, id string, age time.Duration) {
	ts := float64(time.Now().Add(-age).UnixNano()) / float64(time.Second)
	path := filepath.Join(root, id, session.ActivityFileName)
	err := os.WriteFile(path, []byte(strconv.FormatFloat(ts, 'f', 6, 64)), 0640)
	Expect(err).To(BeNil())
}

var _ = Describe("Session", func() {
	var (
		root string
		sess *session.Session
		err  error
	)

	BeforeEach(func() {
		root, err = os.MkdirTemp("", "sessions")
		Expect(err).To(BeNil())
		sess, err = session.New(root)
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		os.RemoveAll(root)
	})

	Context("when caching transcripts", func() {
		It("should return exactly what was saved", func() {
			in := words("今日", "は", "晴れ", "です")

			err = sess.SaveTranscript("lesson1.mp4", in, "/tmp/lesson1.mp4", "/tmp/lesson1.mp3")
			Expect(err).To(BeNil())

			entry, ok := sess.GetTranscript("lesson1.mp4")
			Expect(ok).To(BeTrue())
			Expect(entry.Words).To(Equal(in))
			Expect(entry.SourceVideoPath).To(Equal("/tmp/lesson1.mp4"))
			Expect(entry.SourceAudioPath).To(Equal("/tmp/lesson1.mp3"))
			Expect(entry.LastSavedAt).ToNot(BeZero())
		})

		It("should miss on a name that was never saved", func() {
			_, ok := sess.GetTranscript("other.mp4")
			Expect(ok).To(BeFalse())
		})

		It("should replace an entry wholesale on re-save", func() {
			err = sess.SaveTranscript("v.mp4", words("古い"), "/a.mp4", "/a.mp3")
			Expect(err).To(BeNil())
			err = sess.SaveTranscript("v.mp4", words("新しい", "内容"), "/b.mp4", "/b.mp3")
			Expect(err).To(BeNil())

			entry, ok := sess.GetTranscript("v.mp4")
			Expect(ok).To(BeTrue())
			Expect(entry.Words).To(HaveLen(2))
			Expect(entry.SourceVideoPath).To(Equal("/b.mp4"))
		})

		It("should persist across handles", func() {
			in := words("保存")
			err = sess.SaveTranscript("v.mp4", in, "/v.mp4", "/v.mp3")
			Expect(err).To(BeNil())

			reopened := session.Open(root, sess.ID())
			entry, ok := reopened.GetTranscript("v.mp4")
			Expect(ok).To(BeTrue())
			Expect(entry.Words).To(Equal(in))
			Expect(reopened.Videos()).To(Equal([]string{"v.mp4"}))
		})

		It("should list cached video names sorted", func() {
			Expect(sess.SaveTranscript("b.mp4", words("い"), "", "")).To(Succeed())
			Expect(sess.SaveTranscript("a.mp4", words("あ"), "", "")).To(Succeed())
			Expect(sess.Videos()).To(Equal([]string{"a.mp4", "b.mp4"}))
		})
	})

	Context("when the cache file is corrupt", func() {
		It("should read as empty and accept new writes", func() {
			Expect(sess.SaveTranscript("v.mp4", words("古い"), "", "")).To(Succeed())

			cachePath := filepath.Join(sess.Dir(), session.CacheFileName)
			Expect(os.WriteFile(cachePath, []byte("{not json"), 0640)).To(Succeed())

			_, ok := sess.GetTranscript("v.mp4")
			Expect(ok).To(BeFalse())

			Expect(sess.SaveTranscript("v.mp4", words("新しい"), "", "")).To(Succeed())
			entry, ok := sess.GetTranscript("v.mp4")
			Expect(ok).To(BeTrue())
			Expect(entry.Words[0].Text).To(Equal("新しい"))
		})
	})

	Context("when tracking activity", func() {
		It("should report a fresh session as young", func() {
			Expect(sess.AgeHours()).To(BeNumerically("<", 0.01))
		})

		It("should report zero age when no activity was recorded", func() {
			ghost := session.Open(root, "never-touched")
			Expect(ghost.AgeHours()).To(BeZero())
		})

		It("should refresh activity on cache hits but not on misses", func() {
			Expect(sess.SaveTranscript("v.mp4", words("あ"), "", "")).To(Succeed())
			backdate(root, sess.ID(), 2*time.Hour)

			_, ok := sess.GetTranscript("missing.mp4")
			Expect(ok).To(BeFalse())
			Expect(sess.AgeHours()).To(BeNumerically(">", 1.9))

			_, ok = sess.GetTranscript("v.mp4")
			Expect(ok).To(BeTrue())
			Expect(sess.AgeHours()).To(BeNumerically("<", 0.01))
		})
	})

	Context("when cleaning up", func() {
		It("should delete the session directory", func() {
			Expect(sess.SaveTranscript("v.mp4", words("あ"), "", "")).To(Succeed())
			Expect(sess.Cleanup()).To(Succeed())

			_, err := os.Stat(sess.Dir())
			Expect(os.IsNotExist(err)).To(BeTrue())
			_, ok := sess.GetTranscript("v.mp4")
			Expect(ok).To(BeFalse())
		})

		It("should tolerate repeated cleanup", func() {
			Expect(sess.Cleanup()).To(Succeed())
			Expect(sess.Cleanup()).To(Succeed())
		})
	})

	Context("when sweeping expired sessions", func() {
		It("should delete idle sessions and keep active ones", func() {
			old, err := session.New(root)
			Expect(err).To(BeNil())
			backdate(root, old.ID(), 2*time.Hour)
			backdate(root, sess.ID(), 30*time.Minute)

			swept, kept := session.SweepExpired(root, 1.0)
			Expect(swept).To(ConsistOf(old.ID()))
			Expect(kept).To(ConsistOf(sess.ID()))

			_, err = os.Stat(old.Dir())
			Expect(os.IsNotExist(err)).To(BeTrue())
			_, err = os.Stat(sess.Dir())
			Expect(err).To(BeNil())
		})

		It("should keep sessions with no recorded activity", func() {
			ghostDir := filepath.Join(root, "no-marker")
			Expect(os.MkdirAll(ghostDir, 0750)).To(Succeed())

			swept, kept := session.SweepExpired(root, 1.0)
			Expect(swept).To(BeEmpty())
			Expect(kept).To(ContainElement("no-marker"))
		})
	})

	Context("when running the sweeper", func() {
		It("should sweep on its interval until shut down", func() {
			backdate(root, sess.ID(), 2*time.Hour)

			sw := session.NewSweeper(root, 1.0, 50*time.Millisecond, "")
			go sw.Run()
			defer sw.Shutdown()

			Eventually(func() bool {
				_, err := os.Stat(sess.Dir())
				return os.IsNotExist(err)
			}, "5s", "20ms").Should(BeTrue())
		})

		It("should sweep once on start before the first tick", func() {
			backdate(root, sess.ID(), 2*time.Hour)

			sw := session.NewSweeper(root, 1.0, time.Hour, "")
			go sw.Run()
			defer sw.Shutdown()

			Eventually(func() bool {
				_, err := os.Stat(sess.Dir())
				return os.IsNotExist(err)
			}, "5s", "20ms").Should(BeTrue())
		})

		It("should accept a seconds-precision cron schedule", func() {
			sw := session.NewSweeper(root, 1.0, time.Hour, "* * * * * *")
			go sw.Run()
			defer sw.Shutdown()

			// the initial sweep keeps the fresh session; only a cron tick
			// can remove it once backdated
			time.Sleep(200 * time.Millisecond)
			backdate(root, sess.ID(), 2*time.Hour)
			Eventually(func() bool {
				_, err := os.Stat(sess.Dir())
				return os.IsNotExist(err)
			}, "5s", "100ms").Should(BeTrue())
		})
	})
})
