package builtins

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// streamBuiltins covers the live-table ingestion path: stream_table dials a
// websocket, reads one JSON object row per message until the server closes
// the connection or a row limit is hit, and accumulates them into a Table —
// the streaming counterpart to read_csv's batch load. Grounded on
// github.com/gorilla/websocket's documented dial/ReadMessage client loop;
// no teacher file touches websockets, so the row-accumulation shape here
// mirrors read_csv's header-then-rows construction instead.
func streamBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"stream_table": native("stream_table", 2, func(args []value.Value) (value.Value, error) {
			url, err := stringArg("stream_table", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			limit, err := numberArg("stream_table", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return streamTable(url, int(limit))
		}),
	}
}

func streamTable(url string, limit int) (value.Value, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return value.Value{}, fmt.Errorf("stream_table: dial %s: %w", url, err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var columns []string
	var rows [][]value.Value

	for limit <= 0 || len(rows) < limit {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			return value.Value{}, fmt.Errorf("stream_table: read: %w", err)
		}

		var record map[string]interface{}
		if err := json.Unmarshal(data, &record); err != nil {
			return value.Value{}, fmt.Errorf("stream_table: decode row: %w", err)
		}
		if columns == nil {
			columns = make([]string, 0, len(record))
			for k := range record {
				columns = append(columns, k)
			}
		}
		row := make([]value.Value, len(columns))
		for i, c := range columns {
			row[i] = fromJSON(record[c])
		}
		rows = append(rows, row)
	}

	tbl := value.NewTable(columns)
	for _, row := range rows {
		if err := tbl.AppendRow(row); err != nil {
			return value.Value{}, err
		}
	}
	return value.FromTable(tbl), nil
}

func fromJSON(v interface{}) value.Value {
	switch v := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	default:
		return value.String(fmt.Sprintf("%v", v))
	}
}
