package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create activity_templates table
			CREATE TABLE activity_templates (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				icon VARCHAR(64),
				category VARCHAR(255),
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_activity_templates_created_at ON activity_templates(created_at, id);

			-- Create workflows table
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				document JSONB NOT NULL,
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_owner ON workflows(owner);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at, id);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
		`,
	}
}
