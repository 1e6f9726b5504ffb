package system

// EnterGraphics switches the console to graphics mode and hides the cursor.
// The returned function undoes both. Failures are logged, never fatal: the
// framebuffer still works with a blinking cursor on top.
func EnterGraphics(l logger) (restore func()) {
	if err := SetGraphicsMode(); err != nil {
		logErr(l, "KD_GRAPHICS failed: %v", err)
	} else {
		logInfo(l, "KD_GRAPHICS set")
	}
	if err := HideCursor(); err != nil {
		logErr(l, "hide cursor failed: %v", err)
	}
	return func() {
		if err := ShowCursor(); err != nil {
			logErr(l, "show cursor failed: %v", err)
		}
		if err := RestoreTextMode(); err != nil {
			logErr(l, "KD_TEXT failed: %v", err)
		} else {
			logInfo(l, "KD_TEXT set")
		}
	}
}

func logInfo(l logger, format string, args ...interface{}) {
	if l != nil {
		l.Infof("tty", format, args...)
	}
}

func logErr(l logger, format string, args ...interface{}) {
	if l != nil {
		l.Errorf("tty", format, args...)
	}
}
