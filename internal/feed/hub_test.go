package feed

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangashelf/pkg/models"
)

func sampleManga() models.Manga {
	return models.Manga{
		ID:              3,
		Title:           "Mushishi",
		Author:          "Yuki Urushibara",
		Genres:          []string{"Supernatural", "Drama"},
		VolumeCount:     10,
		PublicationDate: "1999-01-01",
		Synopsis:        "Ginko travels to study the mushi.",
		Rating:          9,
		Publisher:       "Kodansha",
	}
}

func TestHubBroadcastToTCPSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server, client := net.Pipe()
	defer client.Close()
	hub.Add(server)

	done := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(client).ReadString('\n')
		done <- line
	}()

	hub.BroadcastJSON(NewEvent(MangaCreated, sampleManga()))

	select {
	case line := <-done:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, MangaCreated, ev.Type)
		assert.Equal(t, 3, ev.ID)
		assert.Equal(t, sampleManga(), ev.Manga)
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server, client := net.Pipe()
	hub.Add(server)
	require.NoError(t, client.Close())

	hub.BroadcastJSON(NewEvent(MangaDeleted, sampleManga()))
	assert.Equal(t, Stats{}, hub.Stats())
}

func TestWSHandlerReceivesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zerolog.Nop())
	router := gin.New()
	router.GET("/ws", WSHandler(hub))

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"welcome"`)

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastJSON(NewEvent(MangaUpdated, sampleManga()))

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, MangaUpdated, ev.Type)
	assert.Equal(t, "Mushishi", ev.Manga.Title)
}

func TestServerStreamsEventsAndCloses(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := NewServer("127.0.0.1:0", hub, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	require.Eventually(t, func() bool { return srv.ListenAddr() != nil }, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"transport":"tcp"`)

	require.Eventually(t, func() bool { return hub.Stats().TCPClients == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.BroadcastJSON(NewEvent(MangaCreated, sampleManga()))

	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"type":"manga.created"`)

	require.NoError(t, srv.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerCloseBeforeRun(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewHub(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, srv.Close())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("Run kept serving after Close, addr=%v", srv.ListenAddr())
	}
	assert.Nil(t, srv.ListenAddr())
}

func TestServeWSDropsSubscriberOnHangup(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 0 }, 2*time.Second, 10*time.Millisecond)
}
