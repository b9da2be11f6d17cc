package player

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/util"
)

// sendCommand sends one JSON IPC command to the player socket and returns
// the data field of its response. mpv may batch events in front of the
// reply, so every newline-separated object in the read is inspected.
func sendCommand(socketPath string, command []any) (any, error) {
	conn, err := dialSocket(socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "dialing player socket")
	}
	defer func() { _ = conn.Close() }()

	payload, err := json.Marshal(map[string]any{"command": command})
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, errors.Wrap(err, "writing player command")
	}

	buffer := make([]byte, 4096)
	n, err := conn.Read(buffer)
	if err != nil {
		return nil, errors.Wrap(err, "reading player response")
	}

	for _, raw := range bytes.Split(buffer[:n], []byte("\n")) {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var response map[string]any
		if err := json.Unmarshal(raw, &response); err != nil {
			util.Debug("skipping unparsable IPC line", "line", string(raw))
			continue
		}
		if errStr, ok := response["error"].(string); ok && errStr == "property unavailable" {
			continue
		}
		if data, exists := response["data"]; exists {
			return data, nil
		}
	}
	return nil, errors.New("no data field in player response")
}
