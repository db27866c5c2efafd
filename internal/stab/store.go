package stab

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/steadyframe/stabilize/internal/monitoring"
)

// Persisted stabilization record, protobuf wire format. This is the stable
// contract between an analysis run and any later rendering run; existing
// saved files must keep loading, so field numbers and types are fixed:
//
//	message Frame {
//	    int32 id = 1;
//	    float x = 2;  float y = 3;  float a = 4;   // smoothed trajectory
//	    float dx = 5; float dy = 6; float da = 7;  // corrective transform
//	}
//	message Stabilization {
//	    repeated Frame frame = 1;
//	    google.protobuf.Timestamp last_updated = 2;
//	}
//
// The record is encoded directly with protowire; the schema is small and
// frozen, so generated bindings would buy nothing. Values are stored as
// protobuf floats (single precision): loading a record loses precision
// relative to the in-memory float64 values, and callers must compare with
// float32 tolerance after a round trip.
const (
	fieldFrame       = 1
	fieldLastUpdated = 2

	frameFieldID = 1
	frameFieldX  = 2
	frameFieldY  = 3
	frameFieldA  = 4
	frameFieldDx = 5
	frameFieldDy = 6
	frameFieldDa = 7
)

// Marshal serializes the record with the given last-updated timestamp.
// Frames are written in ascending index order.
func Marshal(d *Data, lastUpdated time.Time) ([]byte, error) {
	ids := make([]int, 0, len(d.TrajectoryData))
	for id := range d.TrajectoryData {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var buf []byte
	for _, id := range ids {
		traj := d.TrajectoryData[id]
		trans, ok := d.TransformationData[id]
		if !ok {
			return nil, fmt.Errorf("frame %d has trajectory data but no corrective transform", id)
		}
		buf = protowire.AppendTag(buf, fieldFrame, protowire.BytesType)
		buf = protowire.AppendBytes(buf, marshalFrame(id, traj, trans))
	}

	ts, err := proto.Marshal(timestamppb.New(lastUpdated))
	if err != nil {
		return nil, fmt.Errorf("encoding last-updated timestamp: %w", err)
	}
	buf = protowire.AppendTag(buf, fieldLastUpdated, protowire.BytesType)
	buf = protowire.AppendBytes(buf, ts)

	return buf, nil
}

func marshalFrame(id int, traj Trajectory, trans RelativeTransform) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, frameFieldID, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int64(id)))
	for _, f := range []struct {
		num protowire.Number
		val float64
	}{
		{frameFieldX, traj.X},
		{frameFieldY, traj.Y},
		{frameFieldA, traj.A},
		{frameFieldDx, trans.Dx},
		{frameFieldDy, trans.Dy},
		{frameFieldDa, trans.Da},
	} {
		buf = protowire.AppendTag(buf, f.num, protowire.Fixed32Type)
		buf = protowire.AppendFixed32(buf, math.Float32bits(float32(f.val)))
	}
	return buf
}

// Unmarshal parses a serialized record into fresh maps. The input is
// rejected as malformed on any wire-level error.
func Unmarshal(b []byte) (*Data, error) {
	d := &Data{
		TrajectoryData:     make(map[int]Trajectory),
		TransformationData: make(map[int]RelativeTransform),
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("malformed record: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldFrame && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("malformed frame entry: %w", protowire.ParseError(n))
			}
			b = b[n:]
			if err := unmarshalFrame(v, d); err != nil {
				return nil, err
			}
		case num == fieldLastUpdated && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("malformed timestamp: %w", protowire.ParseError(n))
			}
			b = b[n:]
			var ts timestamppb.Timestamp
			if err := proto.Unmarshal(v, &ts); err != nil {
				return nil, fmt.Errorf("decoding last-updated timestamp: %w", err)
			}
			d.LastUpdated = ts.AsTime()
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("malformed record field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return d, nil
}

func unmarshalFrame(b []byte, d *Data) error {
	var id int
	var traj Trajectory
	var trans RelativeTransform

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("malformed frame field: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("malformed frame id: %w", protowire.ParseError(n))
			}
			b = b[n:]
			if num == frameFieldID {
				id = int(int64(v))
			}
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return fmt.Errorf("malformed frame value: %w", protowire.ParseError(n))
			}
			b = b[n:]
			f := float64(math.Float32frombits(v))
			switch num {
			case frameFieldX:
				traj.X = f
			case frameFieldY:
				traj.Y = f
			case frameFieldA:
				traj.A = f
			case frameFieldDx:
				trans.Dx = f
			case frameFieldDy:
				trans.Dy = f
			case frameFieldDa:
				trans.Da = f
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("malformed frame field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	d.TrajectoryData[id] = traj
	d.TransformationData[id] = trans
	return nil
}

// Save writes the record to path, stamping it with the current time. A
// failed write is reported to the caller; it never aborts the process.
func (d *Data) Save(path string) error {
	now := time.Now()
	buf, err := Marshal(d, now)
	if err != nil {
		return fmt.Errorf("serializing stabilization data for %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("writing stabilization data: %w", err)
	}
	d.LastUpdated = now
	return nil
}

// Load reads a record from path, replacing d's maps. The replacement only
// happens after a successful parse: a malformed or unreadable file leaves
// d untouched, and a second load fully replaces the first rather than
// accumulating entries.
func (d *Data) Load(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading stabilization data: %w", err)
	}
	loaded, err := Unmarshal(buf)
	if err != nil {
		return fmt.Errorf("parsing stabilization data %s: %w", path, err)
	}

	d.TrajectoryData = loaded.TrajectoryData
	d.TransformationData = loaded.TransformationData
	d.LastUpdated = loaded.LastUpdated
	monitoring.Logf("loaded stabilization data for %d frames from %s (saved %s)",
		len(loaded.TransformationData), path, loaded.LastUpdated.Format(time.RFC3339))
	return nil
}
