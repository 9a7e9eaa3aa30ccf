package run

import "errors"

// Static errors for the run taxonomy. Every fatal failure wraps exactly one
// of these. Runs that find no speech or nothing worth cutting are not
// errors; they report an Outcome instead.
var (
	// ErrUsage is returned for missing or contradictory arguments, before any work is done.
	ErrUsage = errors.New("usage error")
	// ErrDecode is returned when the input could not be decoded into samples.
	ErrDecode = errors.New("decode failed")
	// ErrOracleInit is returned when the voice-activity model could not be loaded.
	ErrOracleInit = errors.New("voice activity oracle init failed")
	// ErrDetect is returned when the oracle fails while classifying a chunk.
	ErrDetect = errors.New("speech detection failed")
	// ErrSubprocess is returned when the cutting tool fails. No partial output is left.
	ErrSubprocess = errors.New("trim subprocess failed")
	// ErrReplace is returned when the trimmed file could not be moved over the
	// input. The trimmed file is kept and its path is in Report.Written.
	ErrReplace = errors.New("replace failed")
	// ErrPublish is returned when the trimmed file could not be uploaded.
	ErrPublish = errors.New("publish failed")
)

// Outcome is how a successful run ended.
type Outcome string

const (
	// OutcomeTrimmed means a cut was made and written.
	OutcomeTrimmed Outcome = "trimmed"
	// OutcomeNoSpeech means the oracle found no speech; nothing was written.
	OutcomeNoSpeech Outcome = "no_speech"
	// OutcomeNoSignificantSilence means the padded range covers the whole
	// input; the original is left untouched.
	OutcomeNoSignificantSilence Outcome = "no_significant_silence"
	// OutcomeDryRun means edges were resolved but no cut was requested.
	OutcomeDryRun Outcome = "dry_run"
	// OutcomeFailed labels failed runs in metrics.
	OutcomeFailed Outcome = "failed"
)
