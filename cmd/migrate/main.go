package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/user/corral/backend/internal/config"
	"github.com/user/corral/backend/internal/database"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Running database migrations for the sync engine...")

	// 1. Users
	log.Println("Creating users table...")
	createUsersSQL := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) NOT NULL UNIQUE,
			display_name VARCHAR(255),
			role VARCHAR(20) DEFAULT 'rancher',
			ranch_name VARCHAR(255),
			timezone VARCHAR(100) DEFAULT 'UTC',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			deleted_at TIMESTAMP WITH TIME ZONE
		);
	`
	if err := db.Exec(createUsersSQL).Error; err != nil {
		log.Fatalf("Failed to create users table: %v", err)
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON users(deleted_at)")
	log.Println("  ✓ users table created")

	// 2. Devices
	log.Println("Creating devices table...")
	createDevicesSQL := `
		CREATE TABLE IF NOT EXISTS devices (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			device_id VARCHAR(255) NOT NULL UNIQUE,
			platform VARCHAR(10),
			device_name VARCHAR(255),
			app_version VARCHAR(20),
			os_version VARCHAR(20),
			last_seen_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			deleted_at TIMESTAMP WITH TIME ZONE,
			CONSTRAINT fk_devices_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	if err := db.Exec(createDevicesSQL).Error; err != nil {
		log.Fatalf("Failed to create devices table: %v", err)
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_devices_user_id ON devices(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_devices_deleted_at ON devices(deleted_at)")
	log.Println("  ✓ devices table created")

	// 3. Sync sessions
	log.Println("Creating sync_sessions table...")
	createSessionsSQL := `
		CREATE TABLE IF NOT EXISTS sync_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			device_id VARCHAR(255) NOT NULL,
			user_id UUID NOT NULL,
			status VARCHAR(20) NOT NULL,
			cursor TIMESTAMP WITH TIME ZONE,
			started_at TIMESTAMP WITH TIME ZONE,
			completed_at TIMESTAMP WITH TIME ZONE,
			changes_received INT DEFAULT 0,
			changes_applied INT DEFAULT 0,
			conflicts_detected INT DEFAULT 0,
			changes_rejected INT DEFAULT 0,
			error_message TEXT,
			device_metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			CONSTRAINT fk_sync_sessions_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	if err := db.Exec(createSessionsSQL).Error; err != nil {
		log.Fatalf("Failed to create sync_sessions table: %v", err)
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_sessions_device_id ON sync_sessions(device_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_sessions_user_id ON sync_sessions(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_sessions_status ON sync_sessions(status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_sessions_started_at ON sync_sessions(started_at)")
	log.Println("  ✓ sync_sessions table created")

	// 4. Conflict records
	log.Println("Creating conflict_records table...")
	createConflictsSQL := `
		CREATE TABLE IF NOT EXISTS conflict_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL,
			device_id VARCHAR(255) NOT NULL,
			entity_type VARCHAR(50) NOT NULL,
			entity_id VARCHAR(255) NOT NULL,
			action VARCHAR(20) NOT NULL,
			reason VARCHAR(50) NOT NULL,
			offline_id VARCHAR(255),
			client_version INT NOT NULL,
			server_version INT NOT NULL,
			client_payload JSONB,
			server_payload JSONB,
			detected_at TIMESTAMP WITH TIME ZONE,
			status VARCHAR(20) NOT NULL,
			resolution_strategy VARCHAR(20),
			resolution_notes TEXT,
			resolved_by VARCHAR(255),
			resolved_at TIMESTAMP WITH TIME ZONE,
			resolution_payload JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			CONSTRAINT fk_conflict_records_session FOREIGN KEY (session_id) REFERENCES sync_sessions(id) ON DELETE CASCADE
		);
	`
	if err := db.Exec(createConflictsSQL).Error; err != nil {
		log.Fatalf("Failed to create conflict_records table: %v", err)
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_conflict_records_session_id ON conflict_records(session_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_conflict_records_device_id ON conflict_records(device_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_conflict_records_status ON conflict_records(status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_conflict_entity ON conflict_records(entity_id)")
	log.Println("  ✓ conflict_records table created")

	// 5. Versioned entities
	log.Println("Creating versioned_entities table...")
	createEntitiesSQL := `
		CREATE TABLE IF NOT EXISTS versioned_entities (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			entity_type VARCHAR(50) NOT NULL,
			entity_id VARCHAR(255) NOT NULL,
			payload JSONB,
			sync_version INT NOT NULL DEFAULT 0,
			deleted BOOLEAN NOT NULL DEFAULT false,
			modified_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if err := db.Exec(createEntitiesSQL).Error; err != nil {
		log.Fatalf("Failed to create versioned_entities table: %v", err)
	}
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_type_id ON versioned_entities(entity_type, entity_id)")
	log.Println("  ✓ versioned_entities table created")

	// 6. Applied changes ledger
	log.Println("Creating applied_changes table...")
	createLedgerSQL := `
		CREATE TABLE IF NOT EXISTS applied_changes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			device_id VARCHAR(255) NOT NULL,
			offline_id VARCHAR(255) NOT NULL,
			session_id UUID NOT NULL,
			entity_type VARCHAR(50) NOT NULL,
			entity_id VARCHAR(255) NOT NULL,
			action VARCHAR(20) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if err := db.Exec(createLedgerSQL).Error; err != nil {
		log.Fatalf("Failed to create applied_changes table: %v", err)
	}
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_device_offline ON applied_changes(device_id, offline_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_applied_changes_session_id ON applied_changes(session_id)")
	log.Println("  ✓ applied_changes table created")

	// 7. Sync events feed
	log.Println("Creating sync_events table...")
	createEventsSQL := `
		CREATE TABLE IF NOT EXISTS sync_events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			entity_type VARCHAR(50) NOT NULL,
			entity_id VARCHAR(255) NOT NULL,
			action VARCHAR(20) NOT NULL,
			payload JSONB,
			device_id VARCHAR(255),
			session_id UUID,
			version INT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if err := db.Exec(createEventsSQL).Error; err != nil {
		log.Fatalf("Failed to create sync_events table: %v", err)
	}
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_events_user_id ON sync_events(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_events_device_id ON sync_events(device_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_events_created_at ON sync_events(created_at)")
	log.Println("  ✓ sync_events table created")

	// Fallback: let gorm pick up anything the raw SQL missed
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}
