package postgres

// queryTableName resolves a table name case-insensitively.
// $1 is the name, $2 the schema ('' means current_schema()).
const queryTableName = `
	SELECT t.table_schema, t.table_name
	FROM information_schema.tables t
	WHERE lower(t.table_name) = lower($1)
		AND t.table_schema = COALESCE(NULLIF($2, ''), current_schema())
		AND t.table_type = 'BASE TABLE'
	ORDER BY (t.table_name = $1) DESC, t.table_name
	LIMIT 1`

const queryColumns = `
	SELECT
		c.column_name,
		c.ordinal_position,
		c.data_type
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`
