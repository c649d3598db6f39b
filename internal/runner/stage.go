// Package runner drives one fetch-verify-handoff run.
//
// A run is linear:
//
//	PRIV_CHECK → NET_PROBE → LOCK → DOWNLOAD → VERIFY → CHMOD → CLEANUP → EXEC_HANDOFF
//
// Each stage either succeeds or ends the run with a typed error carrying the
// stage. Every capability a stage needs is injected through Deps.
package runner

// Stage identifies a step of the run.
type Stage int

const (
	StageStart Stage = iota
	StagePrivCheck
	StageNetProbe
	StageLock
	StageDownload
	StageVerify
	StageChmod
	StageCleanup
	StageHandoff
)

var stageNames = map[Stage]string{
	StageStart:     "START",
	StagePrivCheck: "PRIV_CHECK",
	StageNetProbe:  "NET_PROBE",
	StageLock:      "LOCK",
	StageDownload:  "DOWNLOAD",
	StageVerify:    "VERIFY",
	StageChmod:     "CHMOD",
	StageCleanup:   "CLEANUP",
	StageHandoff:   "EXEC_HANDOFF",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
