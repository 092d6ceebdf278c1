package wire

// Canonical parameter names. These are the exact device-facing spellings
// used inside the "Parameters" object of settings frames and telemetry
// messages; the firmware matches on them literally.
const (
	ParamElectrode           = "Electrode"
	ParamEvent               = "Event"
	ParamManualModeAction    = "Manual Mode Action"
	ParamShuntVoltage        = "Shunt Voltage"
	ParamShuntCurrent        = "Shunt Current"
	ParamReferenceFail       = "Reference Fail"
	ParamReferenceUP         = "Reference UP"
	ParamReferenceOP         = "Reference OP"
	ParamInterruptOnTime     = "Interrupt ON Time"
	ParamInterruptOffTime    = "Interrupt OFF Time"
	ParamInterruptStartStamp = "Interrupt Start TimeStamp"
	ParamInterruptStopStamp  = "Interrupt Stop TimeStamp"
	ParamDepolStartStamp     = "Depolarization Start TimeStamp"
	ParamDepolStopStamp      = "Depolarization Stop TimeStamp"
	ParamDepolInterval       = "Depolarization_interval"
	ParamInstantMode         = "Instant Mode"
	ParamInstantStartStamp   = "Instant Start TimeStamp"
	ParamInstantEndStamp     = "Instant End TimeStamp"
	ParamLoggingInterval     = "logging_interval"
)

// ParameterNames lists every canonical parameter in frame order.
// A dispatched settings frame always contains all of them.
var ParameterNames = []string{
	ParamElectrode,
	ParamEvent,
	ParamManualModeAction,
	ParamShuntVoltage,
	ParamShuntCurrent,
	ParamReferenceFail,
	ParamReferenceUP,
	ParamReferenceOP,
	ParamInterruptOnTime,
	ParamInterruptOffTime,
	ParamInterruptStartStamp,
	ParamInterruptStopStamp,
	ParamDepolStartStamp,
	ParamDepolStopStamp,
	ParamDepolInterval,
	ParamInstantMode,
	ParamInstantStartStamp,
	ParamInstantEndStamp,
	ParamLoggingInterval,
}

// IsCanonicalParameter reports whether name is one of the fixed canonical
// parameter names.
func IsCanonicalParameter(name string) bool {
	for _, p := range ParameterNames {
		if p == name {
			return true
		}
	}
	return false
}
