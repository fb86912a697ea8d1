package memstore

import (
	"slices"
	"strconv"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/port"
)

// session interprets statements against one database snapshot.
type session struct {
	schema string
	db     database
}

func unsupported(what string) error {
	return domain.NewError(domain.ErrQuery, "exec", "", "unsupported %s", what)
}

func parse(sql string) ([]*pg_query.Node, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrQuery, Op: "parse", Err: err}
	}
	stmts := make([]*pg_query.Node, 0, len(tree.Stmts))
	for _, raw := range tree.Stmts {
		if raw.GetStmt() != nil {
			stmts = append(stmts, raw.GetStmt())
		}
	}
	if len(stmts) == 0 {
		return nil, domain.NewError(domain.ErrQuery, "parse", "", "empty statement")
	}
	return stmts, nil
}

// exec runs every statement in sql and returns the rows affected by the
// last one. Parameters are only allowed with a single statement.
func (s *session) exec(sql string, args []any) (int64, error) {
	stmts, err := parse(sql)
	if err != nil {
		return 0, err
	}
	if len(stmts) > 1 && len(args) > 0 {
		return 0, domain.NewError(domain.ErrQuery, "exec", "", "cannot insert multiple commands into a prepared statement")
	}

	var n int64
	for _, stmt := range stmts {
		switch {
		case stmt.GetCreateStmt() != nil:
			n, err = 0, s.create(stmt.GetCreateStmt())
		case stmt.GetDropStmt() != nil:
			n, err = 0, s.drop(stmt.GetDropStmt())
		case stmt.GetInsertStmt() != nil:
			n, err = s.insert(stmt.GetInsertStmt(), args)
		case stmt.GetUpdateStmt() != nil:
			n, err = s.update(stmt.GetUpdateStmt(), args)
		case stmt.GetDeleteStmt() != nil:
			n, err = s.delete(stmt.GetDeleteStmt(), args)
		case stmt.GetSelectStmt() != nil:
			var rs *port.RowSet
			rs, err = s.selectRows(stmt.GetSelectStmt(), args)
			if rs != nil {
				n = int64(len(rs.Rows))
			}
		default:
			err = unsupported("statement")
		}
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (s *session) query(sql string, args []any) (*port.RowSet, error) {
	stmts, err := parse(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 || stmts[0].GetSelectStmt() == nil {
		return nil, unsupported("query: only a single SELECT is allowed")
	}
	return s.selectRows(stmts[0].GetSelectStmt(), args)
}

// relation resolves a RangeVar to a table in this store's schema.
func (s *session) relation(rv *pg_query.RangeVar) (*table, error) {
	if rv == nil {
		return nil, unsupported("statement without a table")
	}
	if rv.GetSchemaname() != "" && rv.GetSchemaname() != s.schema {
		return nil, domain.NewError(domain.ErrSchemaNotFound, "exec", rv.GetRelname(),
			"schema %q does not exist", rv.GetSchemaname())
	}
	t, ok := s.db[rv.GetRelname()]
	if !ok {
		return nil, domain.NewError(domain.ErrSchemaNotFound, "exec", rv.GetRelname(),
			"relation %q does not exist", rv.GetRelname())
	}
	return t, nil
}

func (s *session) create(stmt *pg_query.CreateStmt) error {
	rv := stmt.GetRelation()
	if rv.GetSchemaname() != "" && rv.GetSchemaname() != s.schema {
		return domain.NewError(domain.ErrSchemaNotFound, "create", rv.GetRelname(), "schema %q does not exist", rv.GetSchemaname())
	}
	name := rv.GetRelname()
	if _, exists := s.db[name]; exists {
		if stmt.GetIfNotExists() {
			return nil
		}
		return domain.NewError(domain.ErrQuery, "create", name, "relation %q already exists", name)
	}

	t := &table{name: name}
	var pkNames []string
	for _, elt := range stmt.GetTableElts() {
		if cons := elt.GetConstraint(); cons != nil {
			if cons.GetContype() == pg_query.ConstrType_CONSTR_PRIMARY {
				pkNames = append(pkNames, stringList(cons.GetKeys())...)
			}
			continue
		}
		def := elt.GetColumnDef()
		if def == nil {
			return unsupported("table element")
		}
		col, isPK, err := columnFromDef(def)
		if err != nil {
			return err
		}
		if isPK {
			pkNames = append(pkNames, col.name)
		}
		t.cols = append(t.cols, col)
	}

	for _, pk := range pkNames {
		i, ok := t.columnIndex(pk)
		if !ok {
			return domain.NewError(domain.ErrQuery, "create", name, "column %q named in key does not exist", pk)
		}
		t.cols[i].notNull = true
		t.pk = append(t.pk, i)
	}
	s.db[name] = t
	return nil
}

func columnFromDef(def *pg_query.ColumnDef) (column, bool, error) {
	names := stringList(def.GetTypeName().GetNames())
	if len(names) == 0 {
		return column{}, false, unsupported("column type")
	}
	typeName := names[len(names)-1]
	typ, ok := typeFromName(typeName)
	if !ok {
		return column{}, false, domain.NewError(domain.ErrQuery, "create", "", "type %q is not supported", typeName)
	}

	col := column{name: def.GetColname(), typeName: typeName, typ: typ, notNull: def.GetIsNotNull(), scale: -1}
	mods := intList(def.GetTypeName().GetTypmods())
	switch typ {
	case typeText:
		if len(mods) > 0 {
			col.length = mods[0]
		}
	case typeNumeric:
		switch {
		case len(mods) >= 2:
			col.scale = mods[1]
		case len(mods) == 1:
			col.scale = 0
		}
	}

	var isPK bool
	for _, c := range def.GetConstraints() {
		switch c.GetConstraint().GetContype() {
		case pg_query.ConstrType_CONSTR_PRIMARY:
			isPK = true
		case pg_query.ConstrType_CONSTR_NOTNULL:
			col.notNull = true
		}
	}
	return col, isPK, nil
}

func (s *session) drop(stmt *pg_query.DropStmt) error {
	if stmt.GetRemoveType() != pg_query.ObjectType_OBJECT_TABLE {
		return unsupported("DROP target")
	}
	for _, obj := range stmt.GetObjects() {
		parts := stringList(obj.GetList().GetItems())
		if len(parts) == 0 {
			return unsupported("DROP target")
		}
		name := parts[len(parts)-1]
		if len(parts) > 1 && parts[len(parts)-2] != s.schema {
			return domain.NewError(domain.ErrSchemaNotFound, "drop", name, "schema %q does not exist", parts[len(parts)-2])
		}
		if _, ok := s.db[name]; !ok {
			if stmt.GetMissingOk() {
				continue
			}
			return domain.NewError(domain.ErrSchemaNotFound, "drop", name, "table %q does not exist", name)
		}
		delete(s.db, name)
	}
	return nil
}

func (s *session) insert(stmt *pg_query.InsertStmt, args []any) (int64, error) {
	t, err := s.relation(stmt.GetRelation())
	if err != nil {
		return 0, err
	}

	targets := make([]int, 0, len(t.cols))
	if cols := stmt.GetCols(); len(cols) > 0 {
		for _, c := range cols {
			name := c.GetResTarget().GetName()
			i, ok := t.columnIndex(name)
			if !ok {
				return 0, domain.NewError(domain.ErrQuery, "insert", t.name, "column %q does not exist", name)
			}
			targets = append(targets, i)
		}
	} else {
		for i := range t.cols {
			targets = append(targets, i)
		}
	}

	lists := stmt.GetSelectStmt().GetSelectStmt().GetValuesLists()
	if len(lists) == 0 {
		return 0, unsupported("INSERT source: only VALUES is allowed")
	}

	for _, list := range lists {
		items := list.GetList().GetItems()
		if len(items) > len(targets) {
			return 0, domain.NewError(domain.ErrQuery, "insert", t.name, "INSERT has more expressions than target columns")
		}
		row := make([]any, len(t.cols))
		for j, item := range items {
			v, err := value(item, args)
			if err != nil {
				return 0, err
			}
			col := &t.cols[targets[j]]
			if row[targets[j]], err = col.coerce(v); err != nil {
				return 0, withTable(err, "insert", t.name)
			}
		}
		if err := t.checkRow(row, -1); err != nil {
			return 0, withTable(err, "insert", t.name)
		}
		t.rows = append(t.rows, row)
	}
	return int64(len(lists)), nil
}

func (s *session) update(stmt *pg_query.UpdateStmt, args []any) (int64, error) {
	t, err := s.relation(stmt.GetRelation())
	if err != nil {
		return 0, err
	}
	match, err := predicate(t, stmt.GetWhereClause(), args)
	if err != nil {
		return 0, withTable(err, "update", t.name)
	}

	type assignment struct {
		idx int
		val any
	}
	var sets []assignment
	for _, target := range stmt.GetTargetList() {
		rt := target.GetResTarget()
		i, ok := t.columnIndex(rt.GetName())
		if !ok {
			return 0, domain.NewError(domain.ErrQuery, "update", t.name, "column %q does not exist", rt.GetName())
		}
		v, err := value(rt.GetVal(), args)
		if err != nil {
			return 0, err
		}
		if v, err = t.cols[i].coerce(v); err != nil {
			return 0, withTable(err, "update", t.name)
		}
		sets = append(sets, assignment{idx: i, val: v})
	}

	var n int64
	for r, row := range t.rows {
		if !match(row) {
			continue
		}
		next := cloneRow(row)
		for _, a := range sets {
			next[a.idx] = a.val
		}
		if err := t.checkRow(next, r); err != nil {
			return 0, withTable(err, "update", t.name)
		}
		t.rows[r] = next
		n++
	}
	return n, nil
}

func (s *session) delete(stmt *pg_query.DeleteStmt, args []any) (int64, error) {
	t, err := s.relation(stmt.GetRelation())
	if err != nil {
		return 0, err
	}
	match, err := predicate(t, stmt.GetWhereClause(), args)
	if err != nil {
		return 0, withTable(err, "delete", t.name)
	}

	kept := t.rows[:0]
	var n int64
	for _, row := range t.rows {
		if match(row) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return n, nil
}

func (s *session) selectRows(stmt *pg_query.SelectStmt, args []any) (*port.RowSet, error) {
	from := stmt.GetFromClause()
	if len(from) != 1 || from[0].GetRangeVar() == nil {
		return nil, unsupported("SELECT: exactly one table is required")
	}
	t, err := s.relation(from[0].GetRangeVar())
	if err != nil {
		return nil, err
	}

	var idx []int
	for _, target := range stmt.GetTargetList() {
		fields := target.GetResTarget().GetVal().GetColumnRef().GetFields()
		if len(fields) == 0 {
			return nil, unsupported("SELECT target: only column references are allowed")
		}
		last := fields[len(fields)-1]
		if last.GetAStar() != nil {
			for i := range t.cols {
				idx = append(idx, i)
			}
			continue
		}
		i, ok := t.columnIndex(last.GetString_().GetSval())
		if !ok {
			return nil, domain.NewError(domain.ErrQuery, "select", t.name, "column %q does not exist", last.GetString_().GetSval())
		}
		idx = append(idx, i)
	}

	match, err := predicate(t, stmt.GetWhereClause(), args)
	if err != nil {
		return nil, withTable(err, "select", t.name)
	}

	rs := &port.RowSet{Columns: make([]string, len(idx))}
	for j, i := range idx {
		rs.Columns[j] = t.cols[i].name
	}

	var matched [][]any
	for _, row := range t.rows {
		if match(row) {
			matched = append(matched, row)
		}
	}

	if err := sortRows(t, matched, stmt.GetSortClause()); err != nil {
		return nil, withTable(err, "select", t.name)
	}

	for _, row := range matched {
		out := make([]any, len(idx))
		for j, i := range idx {
			out[j] = row[i]
		}
		rs.Rows = append(rs.Rows, out)
	}
	return rs, nil
}

func sortRows(t *table, rows [][]any, clause []*pg_query.Node) error {
	type key struct {
		idx  int
		desc bool
	}
	keys := make([]key, 0, len(clause))
	for _, n := range clause {
		sb := n.GetSortBy()
		name, ok := columnRefName(sb.GetNode())
		if !ok {
			return unsupported("ORDER BY expression")
		}
		i, ok := t.columnIndex(name)
		if !ok {
			return domain.NewError(domain.ErrQuery, "select", t.name, "column %q does not exist", name)
		}
		keys = append(keys, key{idx: i, desc: sb.GetSortbyDir() == pg_query.SortByDir_SORTBY_DESC})
	}
	if len(keys) == 0 {
		return nil
	}
	slices.SortStableFunc(rows, func(a, b []any) int {
		for _, k := range keys {
			c := compare(a[k.idx], b[k.idx])
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return nil
}

// predicate compiles a WHERE clause of column equalities joined by AND.
func predicate(t *table, where *pg_query.Node, args []any) (func([]any) bool, error) {
	if where == nil {
		return func([]any) bool { return true }, nil
	}

	if be := where.GetBoolExpr(); be != nil {
		if be.GetBoolop() != pg_query.BoolExprType_AND_EXPR {
			return nil, unsupported("WHERE: only AND is allowed")
		}
		parts := make([]func([]any) bool, 0, len(be.GetArgs()))
		for _, arg := range be.GetArgs() {
			p, err := predicate(t, arg, args)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return func(row []any) bool {
			for _, p := range parts {
				if !p(row) {
					return false
				}
			}
			return true
		}, nil
	}

	expr := where.GetAExpr()
	if expr == nil || expr.GetKind() != pg_query.A_Expr_Kind_AEXPR_OP || !slices.Equal(stringList(expr.GetName()), []string{"="}) {
		return nil, unsupported("WHERE: only column = value is allowed")
	}
	name, ok := columnRefName(expr.GetLexpr())
	if !ok {
		return nil, unsupported("WHERE: left side must be a column")
	}
	i, ok := t.columnIndex(name)
	if !ok {
		return nil, domain.NewError(domain.ErrQuery, "where", t.name, "column %q does not exist", name)
	}
	v, err := value(expr.GetRexpr(), args)
	if err != nil {
		return nil, err
	}
	want, err := t.cols[i].coerce(v)
	if err != nil {
		return nil, err
	}
	return func(row []any) bool {
		return want != nil && row[i] != nil && compare(row[i], want) == 0
	}, nil
}

// checkRow enforces NOT NULL and primary key uniqueness. skip is the index
// of the row being replaced, or -1.
func (t *table) checkRow(row []any, skip int) error {
	for i, c := range t.cols {
		if c.notNull && row[i] == nil {
			return domain.NewError(domain.ErrConstraintViolation, "", "",
				"null value in column %q violates not-null constraint", c.name)
		}
	}
	if len(t.pk) == 0 {
		return nil
	}
	for r, other := range t.rows {
		if r == skip {
			continue
		}
		same := true
		for _, i := range t.pk {
			if compare(other[i], row[i]) != 0 {
				same = false
				break
			}
		}
		if same {
			return domain.NewError(domain.ErrConstraintViolation, "", "",
				"duplicate key value violates unique constraint %q", t.name+"_pkey")
		}
	}
	return nil
}

func withTable(err error, op, table string) error {
	return domain.Classify(op, table, err)
}

// value evaluates a parameter reference, literal or cast literal.
func value(n *pg_query.Node, args []any) (any, error) {
	switch {
	case n.GetParamRef() != nil:
		num := int(n.GetParamRef().GetNumber())
		if num < 1 || num > len(args) {
			return nil, domain.NewError(domain.ErrQuery, "bind", "", "there is no parameter $%d", num)
		}
		return args[num-1], nil
	case n.GetAConst() != nil:
		c := n.GetAConst()
		switch {
		case c.GetIsnull():
			return nil, nil
		case c.GetIval() != nil:
			return int64(c.GetIval().GetIval()), nil
		case c.GetFval() != nil:
			return c.GetFval().GetFval(), nil
		case c.GetSval() != nil:
			return c.GetSval().GetSval(), nil
		case c.GetBoolval() != nil:
			return strconv.FormatBool(c.GetBoolval().GetBoolval()), nil
		}
		// A zero integer literal carries no Ival.
		return int64(0), nil
	case n.GetTypeCast() != nil:
		return value(n.GetTypeCast().GetArg(), args)
	}
	return nil, unsupported("value expression")
}

func columnRefName(n *pg_query.Node) (string, bool) {
	fields := n.GetColumnRef().GetFields()
	if len(fields) == 0 {
		return "", false
	}
	name := fields[len(fields)-1].GetString_().GetSval()
	return name, name != ""
}

func stringList(nodes []*pg_query.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := n.GetString_(); s != nil {
			out = append(out, s.GetSval())
		}
	}
	return out
}

func intList(nodes []*pg_query.Node) []int {
	out := make([]int, 0, len(nodes))
	for _, n := range nodes {
		if c := n.GetAConst(); c != nil {
			out = append(out, int(c.GetIval().GetIval()))
		}
	}
	return out
}

