package realtime

import "sync"

type boardEvent struct {
	Type       string `json:"type"`
	PipelineID int    `json:"pipeline_id"`
}

// BoardHub fans out board-changed notifications to the viewers of each
// pipeline. Events carry no diff: a notified client re-fetches the whole
// board, since the engine does not emit fine-grained patches.
type BoardHub struct {
	mu     sync.RWMutex
	boards map[int]map[*Conn]struct{}
}

func NewBoardHub() *BoardHub {
	return &BoardHub{
		boards: make(map[int]map[*Conn]struct{}),
	}
}

func (h *BoardHub) Register(pipelineID int, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.boards[pipelineID] == nil {
		h.boards[pipelineID] = make(map[*Conn]struct{})
	}
	h.boards[pipelineID][conn] = struct{}{}
}

func (h *BoardHub) Unregister(pipelineID int, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.boards[pipelineID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.boards, pipelineID)
		}
	}
	_ = conn.Close()
}

// BoardChanged implements services.BoardNotifier. Write errors are ignored;
// a dead connection is reaped by its read loop.
func (h *BoardHub) BoardChanged(pipelineID int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.boards[pipelineID] {
		_ = conn.WriteJSON(boardEvent{Type: "board_changed", PipelineID: pipelineID})
	}
}
