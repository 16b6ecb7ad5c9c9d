package topic

import (
	"errors"
	"testing"
)

// ─── Parse ──────────────────────────────────────────────────────────────────

func TestParse_NodeTopics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Topic
	}{
		{
			name:  "nbirth",
			input: "spBv1.0/FactoryA/NBIRTH/Line1",
			want:  Topic{Version: "spBv1.0", GroupID: "FactoryA", Type: NBIRTH, EdgeNodeID: "Line1"},
		},
		{
			name:  "ndeath",
			input: "spBv1.0/FactoryA/NDEATH/Line1",
			want:  Topic{Version: "spBv1.0", GroupID: "FactoryA", Type: NDEATH, EdgeNodeID: "Line1"},
		},
		{
			name:  "ndata",
			input: "spBv1.0/G/NDATA/N",
			want:  Topic{Version: "spBv1.0", GroupID: "G", Type: NDATA, EdgeNodeID: "N"},
		},
		{
			name:  "ncmd",
			input: "spBv1.0/G/NCMD/N",
			want:  Topic{Version: "spBv1.0", GroupID: "G", Type: NCMD, EdgeNodeID: "N"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_DeviceTopics(t *testing.T) {
	got, err := Parse("spBv1.0/FactoryA/DDATA/Line1/Press01")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	want := Topic{
		Version:    "spBv1.0",
		GroupID:    "FactoryA",
		Type:       DDATA,
		EdgeNodeID: "Line1",
		DeviceID:   "Press01",
	}
	if got != want {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}
}

func TestParse_StateTopic(t *testing.T) {
	got, err := Parse("STATE/scada-primary")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if got.Type != STATE {
		t.Errorf("Type = %v, want STATE", got.Type)
	}
	if got.PrimaryHostID != "scada-primary" {
		t.Errorf("PrimaryHostID = %q, want %q", got.PrimaryHostID, "scada-primary")
	}
	if got.GroupID != "" || got.EdgeNodeID != "" || got.DeviceID != "" {
		t.Errorf("STATE topic should not carry sparkplug identity fields: %+v", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrInvalidTopic},
		{name: "too few segments", input: "spBv1.0/G/NBIRTH", wantErr: ErrInvalidTopic},
		{name: "unknown type", input: "spBv1.0/G/NBOGUS/N", wantErr: ErrUnknownMessageType},
		{name: "device type without device", input: "spBv1.0/G/DBIRTH/N", wantErr: ErrInvalidTopic},
		{name: "node type with device", input: "spBv1.0/G/NDATA/N/D", wantErr: ErrInvalidTopic},
		{name: "state without host", input: "STATE", wantErr: ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		"spBv1.0/FactoryA/NBIRTH/Line1",
		"spBv1.0/FactoryA/DDEATH/Line1/Press01",
		"STATE/scada-primary",
	}

	for _, input := range inputs {
		parsed, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", input, err)
		}
		if got := parsed.String(); got != input {
			t.Errorf("round trip %q -> %q", input, got)
		}
	}
}

// ─── Builders ───────────────────────────────────────────────────────────────

func TestTopics_Builders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"node", topics.Node("spBv1.0", "G", NBIRTH, "N"), "spBv1.0/G/NBIRTH/N"},
		{"device", topics.Device("spBv1.0", "G", DBIRTH, "N", "D"), "spBv1.0/G/DBIRTH/N/D"},
		{"state", topics.State("scada-primary"), "STATE/scada-primary"},
		{"node commands", topics.NodeCommands("spBv1.0", "G", "N"), "spBv1.0/G/NCMD/N"},
		{"device commands", topics.DeviceCommands("spBv1.0", "G", "N"), "spBv1.0/G/DCMD/N/+"},
		{"all states", topics.AllStates(), "STATE/#"},
		{"all of type", topics.AllOfType("spBv1.0", NBIRTH), "spBv1.0/+/NBIRTH/+"},
		{"all of type deep", topics.AllOfTypeDeep("spBv1.0", NDATA), "spBv1.0/+/NDATA/#"},
		{"shared", topics.Shared("hosts", "spBv1.0/+/NDATA/#"), "$share/hosts/spBv1.0/+/NDATA/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
