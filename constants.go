package ffbcore

import "github.com/openwheel/ffbcore/internal/constants"

// Re-exported tunables for callers that want to reference spec defaults
// without importing the internal package tree directly.
const (
	NominalTickPeriod = constants.NominalTickPeriod
	DefaultSpinTail   = constants.DefaultSpinTail

	MinAdaptivePeriod = constants.MinAdaptivePeriod
	MaxAdaptivePeriod = constants.MaxAdaptivePeriod

	SoftStopMaxDuration = constants.SoftStopMaxDuration
	ThermalTripC        = constants.ThermalTripC
	ThermalClearC       = constants.ThermalClearC

	DefaultUSBTimeout          = constants.DefaultUSBTimeout
	DefaultPluginTimeoutStreak = constants.DefaultPluginTimeoutStreak
	DefaultQuarantineDuration  = constants.DefaultQuarantineDuration
	DefaultHandsOffTimeout     = constants.DefaultHandsOffTimeout

	HighTorqueChallengeValidity = constants.HighTorqueChallengeValidity
	DefaultSafeTorqueCeiling    = constants.DefaultSafeTorqueCeiling

	MaxReconstructionLevel = constants.MaxReconstructionLevel
	MaxCurvePoints         = constants.MaxCurvePoints
	ReplayTolerance        = constants.ReplayTolerance

	WBBVersion            = constants.WBBVersion
	BlackboxIndexInterval = constants.BlackboxIndexInterval
)
