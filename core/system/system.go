package system

import (
	"io/fs"
	"os/exec"
	"path/filepath"

	"github.com/mudler/memory"
	"github.com/mudler/xlog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/mudler/LocalSRS/core/schema"
)

// Tools the pipeline shells out to. Missing ones degrade features rather
// than fail startup, so this is reported instead of enforced.
var probedTools = []string{"ffmpeg", "ffprobe", "yt-dlp", "python3"}

func GetRAMInfo() *schema.RAMInfo {
	total := memory.TotalMemory()
	free := memory.AvailableMemory()
	used := total - free

	usagePercent := 0.0
	if total > 0 {
		usagePercent = float64(used) / float64(total) * 100
	}
	xlog.Debug("System RAM info", "total", total, "used", used, "free", free)
	return &schema.RAMInfo{
		Total:        total,
		Used:         used,
		Free:         free,
		UsagePercent: usagePercent,
	}
}

// GetDiskInfo reports the filesystem holding the sessions root plus the
// footprint of the sessions themselves.
func GetDiskInfo(sessionsPath string) *schema.DiskInfo {
	usage, err := disk.Usage(sessionsPath)
	if err != nil {
		xlog.Warn("cannot stat sessions filesystem", "path", sessionsPath, "error", err)
		return nil
	}
	return &schema.DiskInfo{
		Path:         sessionsPath,
		Total:        usage.Total,
		Free:         usage.Free,
		UsedPercent:  usage.UsedPercent,
		SessionBytes: dirBytes(sessionsPath),
	}
}

// ProbeTools reports which external collaborators are on PATH.
func ProbeTools() map[string]bool {
	tools := make(map[string]bool, len(probedTools))
	for _, tool := range probedTools {
		_, err := exec.LookPath(tool)
		tools[tool] = err == nil
	}
	return tools
}

func dirBytes(root string) int64 {
	var total int64
	filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
