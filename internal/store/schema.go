package store

// schemaVersion is stamped into PRAGMA user_version after migration.
// 1: cpu, ram, gpu load. 2: gpu and cpu temperature columns.
const schemaVersion = 2

const createMeasurements = `
CREATE TABLE IF NOT EXISTS measurements (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    captured_at      TEXT    NOT NULL,
    cpu_percent      REAL    NOT NULL,
    ram_percent      REAL    NOT NULL,
    gpu_load_percent REAL,
    gpu_temp_c       REAL,
    cpu_temp_c       REAL
)`

const createCapturedAtIndex = `CREATE INDEX IF NOT EXISTS idx_measurements_captured_at ON measurements(captured_at)`

// addedColumns are columns introduced after the first schema. Stores created
// earlier gain them through ALTER TABLE; existing rows read NULL.
var addedColumns = []struct {
	name string
	decl string
}{
	{"gpu_temp_c", "REAL"},
	{"cpu_temp_c", "REAL"},
}

// requiredColumns must all exist before rows can be read.
var requiredColumns = []string{
	"id", "captured_at", "cpu_percent", "ram_percent",
	"gpu_load_percent", "gpu_temp_c", "cpu_temp_c",
}

// timeLayout is the captured_at text format, local time, second resolution.
const timeLayout = "2006-01-02 15:04:05"
