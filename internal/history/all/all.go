// Package all registers every history backend with the factory registry.
// The CLI blank-imports it so the configured kind is always available.
package all

import (
	_ "cleancsv/internal/history/mssql"
	_ "cleancsv/internal/history/postgres"
	_ "cleancsv/internal/history/sqlite"
)
