// Package schema defines the database schema for development.
//
// DEVELOPMENT USE ONLY
// This file contains the current database schema and is used for development and testing.
// Before deploying to production, these table definitions should be converted to proper migrations.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pipelines (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		module VARCHAR(100) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		won_stage_name VARCHAR(255) NOT NULL DEFAULT '',
		lost_stage_name VARCHAR(255) NOT NULL DEFAULT '',
		unqualified_stage_name VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pipelines_tenant ON pipelines (tenant_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS pipeline_stages (
		id UUID PRIMARY KEY,
		pipeline_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		win_likelihood INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		stage_order INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pipeline_stages_pipeline ON pipeline_stages (pipeline_id, stage_order)`,
	`CREATE TABLE IF NOT EXISTS pipeline_exit_reasons (
		id UUID PRIMARY KEY,
		pipeline_id UUID NOT NULL,
		reason_type VARCHAR(20) NOT NULL,
		description TEXT NOT NULL,
		reason_order INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pipeline_exit_reasons_pipeline ON pipeline_exit_reasons (pipeline_id, reason_order)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id UUID PRIMARY KEY,
		tenant_id VARCHAR(64) NOT NULL,
		pipeline_id UUID NOT NULL,
		stage_id UUID,
		status VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		owner_id UUID,
		req_amount DECIMAL(15, 2) NOT NULL DEFAULT 0,
		closed_reason TEXT NOT NULL DEFAULT '',
		closed_time TIMESTAMP,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_tenant_pipeline_status ON leads (tenant_id, pipeline_id, status) WHERE is_deleted = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_leads_stage ON leads (stage_id) WHERE is_deleted = FALSE`,
	`CREATE TABLE IF NOT EXISTS lead_phones (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL,
		type VARCHAR(50) NOT NULL DEFAULT '',
		number VARCHAR(50) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lead_phones_lead ON lead_phones (lead_id)`,
	`CREATE TABLE IF NOT EXISTS lead_emails (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL,
		type VARCHAR(50) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lead_emails_lead ON lead_emails (lead_id)`,
	`CREATE TABLE IF NOT EXISTS lead_addresses (
		lead_id UUID PRIMARY KEY,
		line1 VARCHAR(255) NOT NULL DEFAULT '',
		line2 VARCHAR(255) NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		state VARCHAR(100) NOT NULL DEFAULT '',
		country VARCHAR(100) NOT NULL DEFAULT '',
		postcode VARCHAR(20) NOT NULL DEFAULT ''
	)`,
}
