package engine

import (
	"math"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// AcceleratorProfile describes the compute resources available for
// inference. It is resolved once at startup and shared by all workers.
type AcceleratorProfile struct {
	Device                string // cpu|cuda
	SupportsHalfPrecision bool
	MemoryBudgetGB        float64
}

// DetectProfile resolves the accelerator profile from the environment.
// CUDA availability cannot be probed portably from Go, so it is driven
// by ACCEL_DEVICE; memory defaults come from the host when unset.
func DetectProfile(logger *zap.Logger) AcceleratorProfile {
	profile := AcceleratorProfile{Device: "cpu"}

	if dev := os.Getenv("ACCEL_DEVICE"); dev == "cuda" {
		profile.Device = "cuda"
		profile.SupportsHalfPrecision = true
	}

	if raw := os.Getenv("ACCEL_MEMORY_GB"); raw != "" {
		if gb, err := strconv.ParseFloat(raw, 64); err == nil && gb > 0 {
			profile.MemoryBudgetGB = gb
		}
	}
	if profile.MemoryBudgetGB == 0 {
		profile.MemoryBudgetGB = estimateMemoryBudgetGB(profile.Device)
	}

	if logger != nil {
		logger.Info("accelerator profile resolved",
			zap.String("device", profile.Device),
			zap.Bool("half_precision", profile.SupportsHalfPrecision),
			zap.Float64("memory_budget_gb", profile.MemoryBudgetGB))
	}
	return profile
}

func estimateMemoryBudgetGB(device string) float64 {
	if device == "cuda" {
		// Conservative default when the GPU memory is not announced.
		return 8.0
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 4.0
	}
	// Models on CPU compete with everything else, keep 30% of free RAM.
	return float64(vm.Available) / (1024 * 1024 * 1024) * 0.3
}

// ComputeType returns the inference precision matching the profile.
func (p AcceleratorProfile) ComputeType() string {
	if p.SupportsHalfPrecision {
		return "float16"
	}
	return "int8"
}

// Recommendation is the outcome of model selection for a recording.
type Recommendation struct {
	ModelSize            string   `json:"model_size"`
	EstimatedTimeMinutes float64  `json:"estimated_time_minutes"`
	MemoryRequiredGB     float64  `json:"memory_required_gb"`
	QualityScore         float64  `json:"quality_score"`
	SpeedMultiplier      float64  `json:"speed_multiplier"`
	AvailableModels      []string `json:"available_models"`
	TargetQuality        string   `json:"target_quality"`
}

// Approximate per-model resource tables. Speed is relative to medium.
var (
	modelMemoryGB = map[string]float64{
		ModelTiny:   0.5,
		ModelBase:   0.7,
		ModelSmall:  1.5,
		ModelMedium: 3.0,
		ModelLarge:  6.0,
	}
	speedMultiplier = map[string]float64{
		ModelTiny:   3.0,
		ModelBase:   2.2,
		ModelSmall:  1.5,
		ModelMedium: 1.0,
		ModelLarge:  0.6,
	}
	qualityScore = map[string]float64{
		ModelTiny:   0.6,
		ModelBase:   0.7,
		ModelSmall:  0.8,
		ModelMedium: 0.9,
		ModelLarge:  1.0,
	}
	sizeOrder = []string{ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge}
)

// RecommendModelSize picks a model for the given recording duration and
// quality target, constrained by the profile's memory budget.
func RecommendModelSize(profile AcceleratorProfile, durationMinutes float64, targetQuality string) Recommendation {
	var available []string
	for _, size := range sizeOrder {
		if modelMemoryGB[size] <= profile.MemoryBudgetGB {
			available = append(available, size)
		}
	}
	if len(available) == 0 {
		available = []string{ModelTiny}
	}

	var recommended string
	switch targetQuality {
	case "fastest":
		best := math.Inf(1)
		for _, size := range available {
			if cost := durationMinutes / speedMultiplier[size]; cost < best {
				best = cost
				recommended = size
			}
		}
	case "highest":
		best := -1.0
		for _, size := range available {
			if qualityScore[size] > best {
				best = qualityScore[size]
				recommended = size
			}
		}
	default:
		targetQuality = "balanced"
		var candidates []string
		switch {
		case durationMinutes > 120:
			candidates = []string{ModelTiny, ModelBase, ModelSmall}
		case durationMinutes > 30:
			candidates = []string{ModelSmall, ModelMedium}
		default:
			candidates = []string{ModelMedium, ModelLarge}
		}
		for _, size := range candidates {
			if contains(available, size) {
				recommended = size
			}
		}
		if recommended == "" {
			recommended = available[0]
		}
	}

	// Baseline: one minute of audio takes ~5s of processing on medium
	// with an accelerator, roughly 3x that on CPU.
	baseSeconds := durationMinutes * 5.0
	if profile.Device == "cpu" {
		baseSeconds *= 3.0
	}

	return Recommendation{
		ModelSize:            recommended,
		EstimatedTimeMinutes: baseSeconds / speedMultiplier[recommended] / 60.0,
		MemoryRequiredGB:     modelMemoryGB[recommended],
		QualityScore:         qualityScore[recommended],
		SpeedMultiplier:      speedMultiplier[recommended],
		AvailableModels:      available,
		TargetQuality:        targetQuality,
	}
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
