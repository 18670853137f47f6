// Package realtime pushes board lifecycle events to connected editors
// over socket.io. Clients watch the board ids they have open; when a
// board is deleted anywhere, every watcher receives board-deleted and
// the client closes its editing session.
package realtime

import (
	"net/http"

	"moodboard/core"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type Server struct {
	io          *socketio.Server
	unsubscribe func()
}

// NewServer creates a socket.io server wired to the store's delete feed.
func NewServer(store core.MoodboardStore) (*Server, error) {
	opts := socketio.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	io := socketio.NewServer(nil, opts)

	io.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		logrus.WithField("socket", socket.Id()).Debug("Realtime client connected")

		socket.On("watch-board", func(datas ...any) {
			boardID, ok := datas[0].(string)
			if !ok || boardID == "" {
				return
			}
			socket.Join(socketio.Room(boardID))
			logrus.WithFields(logrus.Fields{
				"socket":  socket.Id(),
				"boardID": boardID,
			}).Debug("Watching board")
		})

		socket.On("unwatch-board", func(datas ...any) {
			boardID, ok := datas[0].(string)
			if !ok {
				return
			}
			socket.Leave(socketio.Room(boardID))
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
		})
	})

	unsubscribe, err := store.SubscribeDeletes(func(boardID string) {
		logrus.WithField("boardID", boardID).Debug("Broadcasting board-deleted")
		io.To(socketio.Room(boardID)).Emit("board-deleted", boardID)
	})
	if err != nil {
		io.Close(nil)
		return nil, err
	}

	return &Server{io: io, unsubscribe: unsubscribe}, nil
}

// Handler returns the HTTP handler to mount at /socket.io/.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close detaches from the delete feed and shuts the socket server down.
func (s *Server) Close() {
	s.unsubscribe()
	s.io.Close(nil)
}
