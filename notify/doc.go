// Package notify delivers intake lifecycle events to external channels.
//
// The Service emits an Event when a requirement is analyzed, a
// recommendation is produced, or a ticket is created or fails. Notifier
// implementations deliver events to a log, a generic webhook, or Slack;
// MultiNotifier fans out to several at once.
package notify
