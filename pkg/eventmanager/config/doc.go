/*
Package config loads event manager settings from files or the environment.

# Files

Config wraps a map[string]any decoded from YAML or JSON and provides typed
accessors that return a default when a key is missing or has the wrong type.
Nested sections are addressed with dotted keys:

	cfg, err := config.FromFile("eventmanager.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	driver := cfg.String("journal.driver", "")

Durations accept Go duration strings ("250ms", "2s") or a plain number of
milliseconds.

# Settings

Settings holds the knobs the event manager understands. Build it from a
loaded file with SettingsFromConfig or from EVENTMANAGER_* variables with
SettingsFromEnv:

	EVENTMANAGER_METRICS=true
	EVENTMANAGER_TRACING=true
	EVENTMANAGER_SLOW_HANDLER_THRESHOLD=250ms
	EVENTMANAGER_LOG_LEVEL=debug
	EVENTMANAGER_JOURNAL_DRIVER=sqlite
	EVENTMANAGER_JOURNAL_PATH=/var/lib/app/faults.db
	EVENTMANAGER_JOURNAL_RECORD_RECOVERED=true

Settings.Logger and Settings.OpenJournal turn the settings into the logger
and fault journal the manager is built with.

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
