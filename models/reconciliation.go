package models

// ReconciliationReport is the read-only diff between the account set on one
// media server and the local externalAccounts rows for that server.
//
// Orphaned ids exist on the server with no local record; Stale ids have a
// local record but are gone server-side. Both slices are sorted so repeated
// runs over unchanged state produce identical reports. The report carries no
// timestamps for the same reason.
type ReconciliationReport struct {
	ServerID      string   `json:"serverId"`
	ServerName    string   `json:"serverName"`
	ExternalCount int      `json:"externalCount"`
	LocalCount    int      `json:"localCount"`
	Matched       int      `json:"matched"`
	Orphaned      []string `json:"orphaned"`
	Stale         []string `json:"stale"`
}
