package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mudler/LocalSRS/core/config"
	"github.com/mudler/LocalSRS/core/schema"
)

func writePreset(dir, file, content string) {
	err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0644)
	Expect(err).To(BeNil())
}

var _ = Describe("Preset", func() {
	Context("defaults", func() {
		It("fills every empty field from the built-in preset", func() {
			p := config.Preset{Name: "bare"}
			Expect(p.SetDefaults()).To(Succeed())

			Expect(p.Name).To(Equal("bare"))
			Expect(p.Segmentation.SoftLimit).To(Equal(10))
			Expect(p.Segmentation.HardLimit).To(Equal(20))
			Expect(p.Segmentation.MaxDuration).To(Equal(8.0))
			Expect(p.Clip.PaddingSeconds).To(Equal(0.25))
			Expect(p.Screenshot.Source).To(Equal(config.ScreenshotSourceVideo))
			Expect(p.Filter.Scripts).To(ContainElement("3040-309F"))
			Expect(p.SentenceTemplate).ToNot(BeEmpty())
		})

		It("keeps explicit values over defaults", func() {
			p := config.Preset{
				Name:         "tuned",
				Segmentation: schema.SegmentationParams{SoftLimit: 6},
				Clip:         config.ClipConfig{PaddingSeconds: 0.5},
			}
			Expect(p.SetDefaults()).To(Succeed())

			Expect(p.Segmentation.SoftLimit).To(Equal(6))
			Expect(p.Segmentation.HardLimit).To(Equal(20))
			Expect(p.Clip.PaddingSeconds).To(Equal(0.5))
		})
	})

	Context("segmenter options", func() {
		It("lets request overrides win over the preset", func() {
			p := config.DefaultPreset()
			opts := p.SegmenterOptions(schema.SegmentationParams{SoftLimit: 4, MaxDuration: 12})

			Expect(opts.SoftLimit).To(Equal(4))
			Expect(opts.MaxDuration).To(Equal(12.0))
			Expect(opts.HardLimit).To(Equal(20))
			Expect(opts.MinLength).To(Equal(3))
		})

		It("uses the preset untouched when no overrides are given", func() {
			p := config.DefaultPreset()
			opts := p.SegmenterOptions(schema.SegmentationParams{})

			Expect(opts.SoftLimit).To(Equal(10))
			Expect(opts.FinalMinLength).To(Equal(5))
			Expect(opts.ClauseMinLength).To(Equal(7))
		})
	})

	Context("script ranges", func() {
		It("parses hex ranges", func() {
			p := config.DefaultPreset()
			ranges, err := p.ScriptRanges()
			Expect(err).To(BeNil())
			Expect(ranges).To(HaveLen(3))
			Expect(ranges[0].Lo).To(Equal(rune(0x3040)))
			Expect(ranges[0].Hi).To(Equal(rune(0x309F)))
		})

		It("rejects malformed ranges", func() {
			p := config.Preset{Filter: config.FilterConfig{Scripts: []string{"30A0"}}}
			_, err := p.ScriptRanges()
			Expect(err).To(HaveOccurred())

			p.Filter.Scripts = []string{"9FAF-4E00"}
			_, err = p.ScriptRanges()
			Expect(err).To(HaveOccurred())
		})
	})

	Context("validation", func() {
		It("rejects an unknown screenshot source", func() {
			p := config.DefaultPreset()
			p.Screenshot.Source = "webcam"
			Expect(p.Validate()).To(BeFalse())
		})

		It("accepts the built-in preset", func() {
			p := config.DefaultPreset()
			Expect(p.Validate()).To(BeTrue())
		})
	})
})

var _ = Describe("PresetLoader", func() {
	var (
		dir    string
		loader *config.PresetLoader
		err    error
	)

	BeforeEach(func() {
		dir, err = os.MkdirTemp("", "presets")
		Expect(err).To(BeNil())
		loader = config.NewPresetLoader(dir)
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("always resolves the built-in default", func() {
		p, ok := loader.GetPreset("")
		Expect(ok).To(BeTrue())
		Expect(p.Name).To(Equal("default"))

		p, ok = loader.GetPreset("default")
		Expect(ok).To(BeTrue())
		Expect(p.Segmentation.HardLimit).To(Equal(20))
	})

	It("loads presets from a directory and fills defaults", func() {
		writePreset(dir, "drama.yaml", `
name: drama
description: longer clips for dialogue-heavy shows
segmentation:
  soft_limit: 14
clip:
  padding_seconds: 0.4
`)
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		p, ok := loader.GetPreset("drama")
		Expect(ok).To(BeTrue())
		Expect(p.Segmentation.SoftLimit).To(Equal(14))
		Expect(p.Segmentation.HardLimit).To(Equal(20))
		Expect(p.Clip.PaddingSeconds).To(Equal(0.4))
		Expect(p.PresetFile()).To(Equal(filepath.Join(dir, "drama.yaml")))
	})

	It("derives the name from the file name when omitted", func() {
		writePreset(dir, "news.yml", "description: short news clips\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		p, ok := loader.GetPreset("news")
		Expect(ok).To(BeTrue())
		Expect(p.Description).To(Equal("short news clips"))
	})

	It("skips unparseable files without failing the load", func() {
		writePreset(dir, "broken.yaml", "segmentation: [not a map\n")
		writePreset(dir, "good.yaml", "name: good\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		_, ok := loader.GetPreset("broken")
		Expect(ok).To(BeFalse())
		_, ok = loader.GetPreset("good")
		Expect(ok).To(BeTrue())
	})

	It("skips dotfiles and non-YAML files", func() {
		writePreset(dir, ".hidden.yaml", "name: hidden\n")
		writePreset(dir, "notes.txt", "name: notes\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		_, ok := loader.GetPreset("hidden")
		Expect(ok).To(BeFalse())
		_, ok = loader.GetPreset("notes")
		Expect(ok).To(BeFalse())
	})

	It("tolerates a missing directory", func() {
		Expect(loader.LoadPresetsFromPath(filepath.Join(dir, "nope"))).To(Succeed())
		_, ok := loader.GetPreset("default")
		Expect(ok).To(BeTrue())
	})

	It("replaces previously loaded presets on reload", func() {
		writePreset(dir, "old.yaml", "name: old\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())
		_, ok := loader.GetPreset("old")
		Expect(ok).To(BeTrue())

		Expect(os.Remove(filepath.Join(dir, "old.yaml"))).To(Succeed())
		writePreset(dir, "new.yaml", "name: new\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		_, ok = loader.GetPreset("old")
		Expect(ok).To(BeFalse())
		_, ok = loader.GetPreset("new")
		Expect(ok).To(BeTrue())
	})

	It("lists presets sorted with the default included", func() {
		writePreset(dir, "anime.yaml", "name: anime\n")
		writePreset(dir, "zz.yaml", "name: zz\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		all := loader.GetAllPresets()
		Expect(all).To(HaveLen(3))
		Expect(all[0].Name).To(Equal("anime"))
		Expect(all[1].Name).To(Equal("default"))
		Expect(all[2].Name).To(Equal("zz"))
	})

	It("searches presets by fuzzy match", func() {
		writePreset(dir, "anime.yaml", "name: anime\ndescription: fast-paced dialogue\n")
		Expect(loader.LoadPresetsFromPath(dir)).To(Succeed())

		res := loader.SearchPresets("anm")
		Expect(res).To(HaveLen(1))
		Expect(res[0].Name).To(Equal("anime"))

		res = loader.SearchPresets("dialogue")
		Expect(res).To(HaveLen(1))
	})
})
