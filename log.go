package spacepacket

import "github.com/sirupsen/logrus"

var _lg = logrus.New()

// SetLogger replaces the package-level logger used for this package's
// non-fatal warnings (unrecognized APIDs when configured to yield rather than
// error). The xtce package logs its decode-time warnings (boolean parameters
// decoded from a non-numeric raw value, non-byte-aligned string lengths)
// through the logrus standard logger, which SetLogger does not replace.
func SetLogger(lg *logrus.Logger) {
	_lg = lg
}
