package rules

// DefaultSpecs returns the built-in rule set: cheap, unambiguous
// housekeeping patterns that never need a model. A YAML rule file
// replaces these entirely.
func DefaultSpecs() []Spec {
	return []Spec{
		{Source: "server", Pattern: `Error 5\d\d`, Label: "ServerError"},
		{Pattern: `User User\d+ logged (in|out)\.`, Label: "User Action"},
		{Pattern: `Account with ID \S+ created by \S+\.`, Label: "User Action"},
		{Pattern: `Backup (started|ended) at .*`, Label: "System Notification"},
		{Pattern: `Backup completed successfully\.`, Label: "System Notification"},
		{Pattern: `System updated to version .*`, Label: "System Notification"},
		{Pattern: `File .* uploaded successfully by user .*`, Label: "System Notification"},
		{Pattern: `Disk cleanup completed successfully\.`, Label: "System Notification"},
		{Pattern: `System reboot initiated by user .*`, Label: "System Notification"},
	}
}

// Default compiles DefaultSpecs. The built-in patterns are covered by
// tests, so compilation cannot fail at runtime.
func Default() *Table {
	t, err := New(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return t
}
