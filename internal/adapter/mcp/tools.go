package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/service"
)

// recordSet is the JSON shape of a table's rows. Cells are rendered the way
// the shell shows them.
type recordSet struct {
	Table   string     `json:"table"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Error   string     `json:"error,omitempty"`
}

func RegisterTools(s *server.MCPServer, repo *service.RecordRepository, scanner *service.SearchScanner) {
	catalog := repo.Catalog()

	s.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription("List the tables this server manages, in bootstrap order"),
		),
		listTablesHandler(catalog),
	)

	s.AddTool(
		mcp.NewTool("describe_table",
			mcp.WithDescription("Describe a managed table's columns in declaration order. The first column is the record key."),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description("Name of the table to describe"),
			),
		),
		describeTableHandler(catalog),
	)

	s.AddTool(
		mcp.NewTool("list_records",
			mcp.WithDescription("Return every record of a managed table ordered by its key"),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description("Name of the table to list"),
			),
			mcp.WithString("format",
				mcp.Description("json (default) or grid for a text table"),
				mcp.Enum("json", "grid"),
			),
		),
		listRecordsHandler(repo),
	)

	s.AddTool(
		mcp.NewTool("search_records",
			mcp.WithDescription("Case-insensitive substring search over the text columns of managed tables. Tables without matches are omitted."),
			mcp.WithString("term",
				mcp.Required(),
				mcp.Description("Text to look for"),
			),
			mcp.WithString("tables",
				mcp.Description("Comma-separated table names; all managed tables when empty"),
			),
		),
		searchHandler(scanner),
	)

	s.AddTool(
		mcp.NewTool("insert_record",
			mcp.WithDescription("Insert one record. Values are given as text, one per column in declaration order."),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description("Name of the table"),
			),
			mcp.WithArray("values",
				mcp.Required(),
				mcp.Description("One value per column"),
				mcp.Items(map[string]any{"type": "string"}),
			),
		),
		insertHandler(repo),
	)

	s.AddTool(
		mcp.NewTool("update_record",
			mcp.WithDescription("Set one column of the record with the given key"),
			mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table")),
			mcp.WithString("key", mcp.Required(), mcp.Description("Value of the record's key column")),
			mcp.WithString("column", mcp.Required(), mcp.Description("Column to change")),
			mcp.WithString("value", mcp.Required(), mcp.Description("New value, as text")),
		),
		updateHandler(repo),
	)

	s.AddTool(
		mcp.NewTool("delete_record",
			mcp.WithDescription("Delete the record with the given key"),
			mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table")),
			mcp.WithString("key", mcp.Required(), mcp.Description("Value of the record's key column")),
		),
		deleteHandler(repo),
	)
}

func listTablesHandler(catalog *service.SchemaCatalog) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(catalog.AllowList().Tables())
	}
}

func describeTableHandler(catalog *service.SchemaCatalog) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, ok := stringArg(request, "table_name")
		if !ok {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		schema, err := catalog.Describe(ctx, table)
		if err != nil {
			return toolError("failed to describe table", err), nil
		}
		return jsonResult(schema)
	}
}

func listRecordsHandler(repo *service.RecordRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, ok := stringArg(request, "table_name")
		if !ok {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		schema, err := repo.Catalog().Describe(ctx, table)
		if err != nil {
			return toolError("failed to list records", err), nil
		}
		records, err := repo.ListWithSchema(ctx, schema)
		if err != nil {
			return toolError("failed to list records", err), nil
		}

		if format, _ := stringArg(request, "format"); strings.EqualFold(format, "grid") {
			return mcp.NewToolResultText(domain.RecordGrid(schema, records)), nil
		}
		return jsonResult(newRecordSet(schema.Table, schema.ColumnNames(), records))
	}
}

func searchHandler(scanner *service.SearchScanner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		term, ok := stringArg(request, "term")
		if !ok {
			return mcp.NewToolResultError("term is required"), nil
		}

		var tables []string
		if list, _ := stringArg(request, "tables"); list != "" {
			for _, t := range strings.Split(list, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tables = append(tables, t)
				}
			}
		}

		results, err := scanner.Search(ctx, term, tables)
		if err != nil {
			return toolError("search failed", err), nil
		}

		sets := make([]recordSet, 0, len(results))
		for _, r := range results {
			set := newRecordSet(r.Table, r.Columns, r.Records)
			if r.Err != nil {
				set.Error = r.Err.Error()
			}
			sets = append(sets, set)
		}
		return jsonResult(sets)
	}
}

func insertHandler(repo *service.RecordRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, ok := stringArg(request, "table_name")
		if !ok {
			return mcp.NewToolResultError("table_name is required"), nil
		}
		raw, ok := request.GetArguments()["values"].([]any)
		if !ok {
			return mcp.NewToolResultError("values must be an array"), nil
		}
		values := make([]string, len(raw))
		for i, v := range raw {
			s, ok := scalarText(v)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("values[%d] must be a string or number", i)), nil
			}
			values[i] = s
		}

		if err := repo.Insert(ctx, domain.InsertRequest{Table: table, Values: values}); err != nil {
			return toolError("failed to insert record", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("inserted 1 record into %s", table)), nil
	}
}

func updateHandler(repo *service.RecordRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args [4]string
		for i, name := range []string{"table_name", "key", "column", "value"} {
			v, ok := stringArg(request, name)
			if !ok && name != "value" {
				return mcp.NewToolResultError(name + " is required"), nil
			}
			args[i] = v
		}

		req := domain.EditRequest{Table: args[0], PrimaryKey: args[1], Column: args[2], NewValue: args[3]}
		if err := repo.Update(ctx, req); err != nil {
			return toolError("failed to update record", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("updated %s of record %s in %s", args[2], args[1], args[0])), nil
	}
}

func deleteHandler(repo *service.RecordRepository) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, ok := stringArg(request, "table_name")
		if !ok {
			return mcp.NewToolResultError("table_name is required"), nil
		}
		key, ok := stringArg(request, "key")
		if !ok {
			return mcp.NewToolResultError("key is required"), nil
		}

		if err := repo.Delete(ctx, domain.DeleteRequest{Table: table, PrimaryKey: key}); err != nil {
			return toolError("failed to delete record", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("deleted record %s from %s", key, table)), nil
	}
}

func newRecordSet(table string, columns []string, records []domain.Record) recordSet {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Strings()
	}
	return recordSet{Table: table, Columns: columns, Rows: rows}
}

// stringArg reads a scalar argument as text. Numbers are accepted because
// clients often send keys unquoted.
func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	s, ok := scalarText(request.GetArguments()[name])
	if !ok || s == "" {
		return s, false
	}
	return s, true
}

func scalarText(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// toolError reports err to the client with its kind so callers can tell a
// constraint violation from a lost connection.
func toolError(msg string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s (%s): %v", msg, domain.KindName(err), err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
