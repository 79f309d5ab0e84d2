package owp1

import "github.com/openwheel/ffbcore/internal/constants"

// Report IDs, re-exported from the shared constants package so wire code
// and engine code read the same symbols.
const (
	ReportIDCaps        = constants.ReportIDCaps
	ReportIDConfig      = constants.ReportIDConfig
	ReportIDChallenge   = constants.ReportIDChallenge
	ReportIDTorqueOut   = constants.ReportIDTorqueOut
	ReportIDTelemetryIn = constants.ReportIDTelemetryIn
	ReportIDConfigAck   = constants.ReportIDConfigAck

	ReportSize = constants.ReportSize
	CRC8Poly   = constants.CRC8Poly
)

// TorqueScale converts a normalized [-1,1] torque command into the
// TorqueCommand.TorqueMNm Q8.8 fixed-point field (§3 Data Model).
const TorqueScale = 1 << 8
