package netlab

// trace.go holds the hop-by-hop record a simulation produces.  Every
// decision a device makes about a packet lands here as one TraceHop,
// appended in dispatch order and never edited afterwards.

import (
	"encoding/json"
	"gopkg.in/yaml.v3"
	"os"
	"path"
)

// TraceAction tags one kind of decision a device can record
type TraceAction string

// the closed set of trace actions
const (
	ReceiveAction  TraceAction = "receive"
	ForwardAction  TraceAction = "forward"
	FloodAction    TraceAction = "flood"
	DropAction     TraceAction = "drop"
	DeliverAction  TraceAction = "deliver"
	LearnAction    TraceAction = "learn"
	RouteAction    TraceAction = "route"
	ARPAction      TraceAction = "arp"
	ACLAllowAction TraceAction = "acl-allow"
	ACLDenyAction  TraceAction = "acl-deny"
)

// trace levels accepted by Options.TraceLevel
const (
	MinimalTrace  = "minimal"
	DetailedTrace = "detailed"
)

// A TraceHop records one device's decision about one packet: the logical
// clock when the device was dispatched, the device and interface
// involved, the action taken, a short human-readable reason, and a
// snapshot of the packet as it was at that moment.
type TraceHop struct {
	Time      int         `json:"time" yaml:"time"`
	NodeID    string      `json:"nodeid" yaml:"nodeid"`
	NodeLabel string      `json:"nodelabel" yaml:"nodelabel"`
	IntrfcID  string      `json:"intrfcid" yaml:"intrfcid"`
	Action    TraceAction `json:"action" yaml:"action"`
	Reason    string      `json:"reason" yaml:"reason"`
	Pckt      Packet      `json:"pckt" yaml:"pckt"`
}

// A TraceRecorder gathers the hops of one simulation.  At the minimal
// trace level the bookkeeping actions (receive, learn) are suppressed
// so the record holds only the decisions that move or stop the packet.
type TraceRecorder struct {
	Level string     `json:"level" yaml:"level"`
	Hops  []TraceHop `json:"hops" yaml:"hops"`
}

// CreateTraceRecorder is a constructor
func CreateTraceRecorder(level string) *TraceRecorder {
	tr := new(TraceRecorder)
	if level == "" {
		level = DetailedTrace
	}
	tr.Level = level
	tr.Hops = make([]TraceHop, 0)
	return tr
}

// AddHop appends one hop to the record, honoring the trace level
func (tr *TraceRecorder) AddHop(hop TraceHop) {
	if tr.Level == MinimalTrace && (hop.Action == ReceiveAction || hop.Action == LearnAction) {
		return
	}
	tr.Hops = append(tr.Hops, hop)
}

// AddHops appends a batch of hops in order
func (tr *TraceRecorder) AddHops(hops []TraceHop) {
	for _, hop := range hops {
		tr.AddHop(hop)
	}
}

// LastHop returns the most recently recorded hop, nil when the record
// is empty
func (tr *TraceRecorder) LastHop() *TraceHop {
	if len(tr.Hops) == 0 {
		return nil
	}
	return &tr.Hops[len(tr.Hops)-1]
}

// WriteToFile stores the gathered trace to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tr *TraceRecorder) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*tr)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*tr, "", "\t")
	}
	if merr != nil {
		return merr
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	_, werr := f.WriteString(string(bytes[:]))
	f.Close()
	return werr
}
