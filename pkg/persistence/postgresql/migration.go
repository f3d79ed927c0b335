package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE sequences (
				id VARCHAR(255) PRIMARY KEY,
				campaign_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_sequences_campaign_id ON sequences(campaign_id);
			CREATE INDEX idx_sequences_deleted_at ON sequences(deleted_at);

			CREATE TABLE sequence_steps (
				sequence_id VARCHAR(255) NOT NULL REFERENCES sequences(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				ordinal INT NOT NULL,
				step_type VARCHAR(50) NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				delivery_time TIMESTAMP WITH TIME ZONE,
				approved BOOLEAN NOT NULL DEFAULT false,
				variations JSONB NOT NULL DEFAULT '[]',
				PRIMARY KEY (sequence_id, id)
			);

			CREATE INDEX idx_sequence_steps_delivery_time ON sequence_steps(delivery_time);
		`,
		2: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				campaign_id VARCHAR(255),
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_campaign_id ON workflows(campaign_id);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE workflow_nodes (
				workflow_id VARCHAR(255) NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				ordinal INT NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				parameters JSONB NOT NULL DEFAULT '{}',
				position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
				position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
				PRIMARY KEY (workflow_id, id)
			);

			CREATE TABLE workflow_edges (
				workflow_id VARCHAR(255) NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				ordinal INT NOT NULL,
				source_node_id VARCHAR(255) NOT NULL,
				target_node_id VARCHAR(255) NOT NULL,
				edge_type VARCHAR(50) NOT NULL DEFAULT '',
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_edges_source ON workflow_edges(source_node_id);
			CREATE INDEX idx_workflow_edges_target ON workflow_edges(target_node_id);
		`,
	}
}
