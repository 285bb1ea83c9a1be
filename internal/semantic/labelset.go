package semantic

// Reference is one label with the example phrases whose mean embedding
// becomes the label's centroid.
type Reference struct {
	Label   string   `koanf:"label"`
	Phrases []string `koanf:"phrases"`
}

// DefaultReferences returns the built-in label set for monitoring
// dashboards. Phrases are representative log lines, not definitions:
// centroids built from real-looking text land closer to real traffic.
func DefaultReferences() []Reference {
	return []Reference{
		{
			Label: "HTTP Status",
			Phrases: []string{
				"GET /api/v1/users returned status 200",
				"nova.api.openstack.compute returned with HTTP 404",
				"POST request to /login responded with 302 redirect",
			},
		},
		{
			Label: "Critical Error",
			Phrases: []string{
				"Fatal error: out of memory, shutting down",
				"Kernel panic - not syncing: attempted to kill init",
				"Unrecoverable disk failure on /dev/sda1",
			},
		},
		{
			Label: "Error",
			Phrases: []string{
				"Failed to connect to database: connection refused",
				"Unexpected exception while processing request",
				"Timeout while waiting for upstream response",
			},
		},
		{
			Label: "Security Alert",
			Phrases: []string{
				"Multiple failed login attempts detected for admin account",
				"Unauthorized access attempt blocked by firewall",
				"Suspicious activity: privilege escalation detected",
			},
		},
		{
			Label: "System Notification",
			Phrases: []string{
				"Scheduled maintenance window starting at midnight",
				"Backup completed successfully",
				"Service restarted after configuration change",
			},
		},
		{
			Label: "Resource Usage",
			Phrases: []string{
				"CPU utilization at 92 percent on node 3",
				"Memory usage exceeded 80 percent threshold",
				"Disk space running low on volume /data",
			},
		},
		{
			Label: "User Action",
			Phrases: []string{
				"User 12345 updated account profile settings",
				"Password changed for user account",
				"User uploaded a file to shared workspace",
			},
		},
		{
			Label: "Workflow Error",
			Phrases: []string{
				"Case escalation for ticket failed because the assigned agent is no longer active",
				"Lead conversion workflow aborted: missing mandatory field",
				"Approval chain broken: manager account deactivated",
			},
		},
		{
			Label: "Deprecation Warning",
			Phrases: []string{
				"The ReportGenerator module will be retired in version 4.0, please migrate",
				"API endpoint /v1/export is deprecated and will be removed",
				"Legacy authentication flow is deprecated, switch to OAuth",
			},
		},
	}
}
