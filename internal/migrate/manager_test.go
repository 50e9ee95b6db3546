package migrate

import "testing"

func TestSplitStatements(t *testing.T) {
	in := `create table a (id text primary key);
insert into a(id) values ('x;y');
create index idx on a(id);`

	stmts := splitStatements(in)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if want := `insert into a(id) values ('x;y');`; !containsTrimmed(stmts, want) {
		t.Fatalf("semicolon inside string literal was split: %q", stmts)
	}
}

func TestSplitStatementsTrailingWithoutSemicolon(t *testing.T) {
	stmts := splitStatements(`select 1; select 2`)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
}

func containsTrimmed(stmts []string, want string) bool {
	for _, s := range stmts {
		if len(s) > 0 && (s == want || trimWS(s) == want) {
			return true
		}
	}
	return false
}

func trimWS(s string) string {
	for len(s) > 0 && (s[0] == '\n' || s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}
