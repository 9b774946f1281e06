package application

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/xlog"

	"github.com/mudler/LocalSRS/core/config"
)

type fileHandler func(fileContent []byte, appConfig *config.ApplicationConfig) error

// configFileHandler hot-reloads runtime configuration: named files under
// DynamicConfigsDir through registered handlers, and the presets directory
// wholesale on any change inside it.
type configFileHandler struct {
	handlers map[string]fileHandler

	watcher *fsnotify.Watcher

	appConfig *config.ApplicationConfig
	presets   *config.PresetLoader
}

func newConfigFileHandler(appConfig *config.ApplicationConfig, presets *config.PresetLoader) configFileHandler {
	c := configFileHandler{
		handlers:  make(map[string]fileHandler),
		appConfig: appConfig,
		presets:   presets,
	}
	err := c.Register("api_keys.json", readApiKeysJson(*appConfig), true)
	if err != nil {
		xlog.Error("unable to register config file handler", "file", "api_keys.json", "error", err)
	}
	return c
}

func (c *configFileHandler) Register(filename string, handler fileHandler, runNow bool) error {
	_, ok := c.handlers[filename]
	if ok {
		return fmt.Errorf("handler already registered for file %s", filename)
	}
	c.handlers[filename] = handler
	if runNow {
		c.callHandler(filename, handler)
	}
	return nil
}

func (c *configFileHandler) callHandler(filename string, handler fileHandler) {
	rootedFilePath := filepath.Join(c.appConfig.DynamicConfigsDir, filepath.Clean(filename))
	xlog.Debug("reading file for dynamic config update", "filename", rootedFilePath)
	fileContent, err := os.ReadFile(rootedFilePath)
	if err != nil && !os.IsNotExist(err) {
		xlog.Error("could not read file", "filename", rootedFilePath, "error", err)
	}

	if err = handler(fileContent, c.appConfig); err != nil {
		xlog.Error("dynamic config update failed", "filename", filename, "error", err)
	}
}

func (c *configFileHandler) reloadPresets() {
	if c.presets == nil || c.appConfig.PresetsPath == "" {
		return
	}
	if err := c.presets.LoadPresetsFromPath(c.appConfig.PresetsPath); err != nil {
		xlog.Error("preset reload failed", "path", c.appConfig.PresetsPath, "error", err)
	}
}

func (c *configFileHandler) inPresetsPath(name string) bool {
	if c.appConfig.PresetsPath == "" {
		return false
	}
	rel, err := filepath.Rel(c.appConfig.PresetsPath, name)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func (c *configFileHandler) Watch() error {
	configWatcher, err := fsnotify.NewWatcher()
	c.watcher = configWatcher
	if err != nil {
		return err
	}

	if c.appConfig.DynamicConfigsDirPollInterval > 0 {
		xlog.Debug("Poll interval set, falling back to polling for configuration changes")
		ticker := time.NewTicker(c.appConfig.DynamicConfigsDirPollInterval)
		go func() {
			for {
				<-ticker.C
				for file, handler := range c.handlers {
					xlog.Debug("polling config file", "file", file)
					c.callHandler(file, handler)
				}
				c.reloadPresets()
			}
		}()
	}

	// Start listening for events.
	go func() {
		for {
			select {
			case event, ok := <-c.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove) {
					if c.inPresetsPath(event.Name) {
						c.reloadPresets()
						continue
					}
					handler, ok := c.handlers[filepath.Base(event.Name)]
					if !ok {
						continue
					}

					c.callHandler(filepath.Base(event.Name), handler)
				}
			case err, ok := <-c.watcher.Errors:
				xlog.Error("config watcher error received", "error", err)
				if !ok {
					return
				}
			}
		}
	}()

	if c.appConfig.DynamicConfigsDir != "" {
		if err := c.watcher.Add(c.appConfig.DynamicConfigsDir); err != nil {
			return fmt.Errorf("unable to create a watcher on the configuration directory: %+v", err)
		}
	}
	if c.appConfig.PresetsPath != "" {
		if err := c.watcher.Add(c.appConfig.PresetsPath); err != nil {
			// Presets may arrive later; polling or a restart picks them up.
			xlog.Debug("presets directory not watchable", "path", c.appConfig.PresetsPath, "error", err)
		}
	}

	return nil
}

func (c *configFileHandler) Stop() error {
	return c.watcher.Close()
}

func readApiKeysJson(startupAppConfig config.ApplicationConfig) fileHandler {
	handler := func(fileContent []byte, appConfig *config.ApplicationConfig) error {
		xlog.Debug("processing api keys runtime update")

		if len(fileContent) > 0 {
			// Parse JSON content from the file
			var fileKeys []string
			err := json.Unmarshal(fileContent, &fileKeys)
			if err != nil {
				return err
			}

			appConfig.ApiKeys = append(startupAppConfig.ApiKeys, fileKeys...)
		} else {
			appConfig.ApiKeys = startupAppConfig.ApiKeys
		}
		xlog.Debug("api keys processed", "numKeys", len(appConfig.ApiKeys))
		return nil
	}

	return handler
}
