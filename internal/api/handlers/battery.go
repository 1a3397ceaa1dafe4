package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prosumer-sim/internal/api/models"
	"prosumer-sim/internal/config"
)

var ErrBatteryNotFound = errors.New("battery preset not found")

// BatteryHandler serves the battery presets in a directory of YAML files.
type BatteryHandler struct {
	batteryDir string
	log        *zap.Logger
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(dir string, log *zap.Logger) *BatteryHandler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log.Info("using battery directory", zap.String("dir", dir))
	return &BatteryHandler{batteryDir: dir, log: log}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		h.log.Warn("read battery directory", zap.String("dir", h.batteryDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		b, err := h.Load(id)
		if err != nil {
			h.log.Warn("skip battery preset", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		name := b.Name
		if name == "" {
			name = id
		}
		batteries = append(batteries, models.BatteryInfo{
			ID:   id,
			Name: name,
			File: filepath.Join(h.batteryDir, entry.Name()),
			Specs: models.BatterySpecs{
				CapacityMWh:      b.CapacityMWh,
				Efficiency:       b.Efficiency,
				InitialChargeMWh: b.InitialChargeMWh,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

// Load reads the preset with the given id (its file name without .yaml).
func (h *BatteryHandler) Load(id string) (config.BatteryConfig, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return config.BatteryConfig{}, ErrBatteryNotFound
	}
	raw, err := os.ReadFile(filepath.Join(h.batteryDir, id+".yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return config.BatteryConfig{}, ErrBatteryNotFound
	}
	if err != nil {
		return config.BatteryConfig{}, err
	}
	return config.ParseBattery(raw)
}
