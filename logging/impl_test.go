package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected Level
	}{
		{"debug", DEBUG},
		{"Info", INFO},
		{"WARN", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}

func TestLevelAsZap(t *testing.T) {
	test.That(t, DEBUG.AsZap(), test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, INFO.AsZap(), test.ShouldEqual, zapcore.InfoLevel)
	test.That(t, WARN.AsZap(), test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, ERROR.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
	test.That(t, Level(42).AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
	test.That(t, INFO.String(), test.ShouldEqual, "Info")
}

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Debugw("projected", "camera", "left", "x", 1.5)
	logger.Infof("triangulated %d rays", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "projected")
	test.That(t, entries[0].ContextMap()["camera"], test.ShouldEqual, "left")
	test.That(t, entries[1].Message, test.ShouldEqual, "triangulated 3 rays")

	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Info("dropped")
	logger.Warn("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 3)
	test.That(t, logs.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("camera")

	sub.SetLevel(ERROR)
	sub.Info("quiet")
	logger.Info("loud")
	test.That(t, logs.FilterMessage("quiet").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("loud").Len(), test.ShouldEqual, 1)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)

	sub.Errorw("failed", "camera", "left")
	entries := logs.FilterMessage("failed").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "camera")
}

func TestBlankLogger(t *testing.T) {
	logger := NewBlankLogger("cli")
	logger.Info("nothing happens")
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, logger.AsZap(), test.ShouldNotBeNil)
}

func TestConsoleLoggers(t *testing.T) {
	test.That(t, NewLogger("multiview").GetLevel(), test.ShouldEqual, INFO)
	debug := NewDebugLogger("multiview")
	test.That(t, debug.GetLevel(), test.ShouldEqual, DEBUG)
	test.That(t, debug.AsZap().Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)
}
