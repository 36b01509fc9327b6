package command

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Command
		ok    bool
	}{
		{"dashboard", Command{Name: "dashboard"}, true},
		{"  Projects  ", Command{Name: "projects"}, true},
		{"q", Command{Name: "quit"}, true},
		{"quotie", Command{Name: "chat"}, true},
		{"new-task  fix login ", Command{Name: "new-task", Arg: "fix login"}, true},
		{"", Command{}, false},
		{"deploy", Command{}, false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Parse(%q) = %+v, %v; want %+v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestComplete(t *testing.T) {
	if got := Complete("new"); !reflect.DeepEqual(got, []string{"new-project", "new-task"}) {
		t.Errorf("Complete(new) = %v", got)
	}
	if got := Complete("fin"); !reflect.DeepEqual(got, []string{"finance"}) {
		t.Errorf("Complete(fin) = %v", got)
	}
	if got := Complete("zzz"); got != nil {
		t.Errorf("Complete(zzz) = %v, want nil", got)
	}
}
