package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func frame(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n"
}

func collect(t *testing.T, body string) (Result, []string, error) {
	t.Helper()
	var got []string
	res, err := Decode(strings.NewReader(body), func(s string) error {
		got = append(got, s)
		return nil
	})
	return res, got, err
}

func TestDecode_AccumulatesUntilDone(t *testing.T) {
	body := ": keepalive\n\n" +
		frame("Hel") +
		"event: ignored\n" +
		frame("lo") +
		`data: {"choices":[{"delta":{}}]}` + "\n" +
		`data: {"choices":[]}` + "\n" +
		"   " + frame(" world") +
		"data: [DONE]\n" +
		frame("after done")

	res, emitted, err := collect(t, body)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, []string{"Hel", "lo", " world"}, emitted)
}

func TestDecode_DataWithoutSpace(t *testing.T) {
	body := `data:{"choices":[{"delta":{"content":"x"}}]}` + "\ndata:[DONE]\n"
	res, _, err := collect(t, body)
	require.NoError(t, err)
	assert.Equal(t, "x", res.Text)
}

func TestDecode_MalformedFrameIsFatal(t *testing.T) {
	body := frame("partial") + "data: {not json\n" + frame("never") + "data: [DONE]\n"

	res, emitted, err := collect(t, body)
	require.Error(t, err)

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Line)
	assert.Equal(t, "{not json", fe.Payload)

	assert.Equal(t, "partial", res.Text)
	assert.Equal(t, []string{"partial"}, emitted)
}

func TestDecode_ErrorObjectIsFatal(t *testing.T) {
	body := `data: {"error":{"message":"quota exceeded","type":"insufficient_quota"}}` + "\n"

	_, _, err := collect(t, body)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "quota exceeded", apiErr.Message)
	assert.Contains(t, err.Error(), "insufficient_quota")
}

func TestDecode_Unterminated(t *testing.T) {
	res, _, err := collect(t, frame("cut"))
	assert.ErrorIs(t, err, ErrUnterminated)
	assert.Equal(t, "cut", res.Text)
}

func TestDecode_Usage(t *testing.T) {
	body := frame("a") +
		`data: {"choices":[],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}` + "\n" +
		"data: [DONE]\n"
	res, _, err := collect(t, body)
	require.NoError(t, err)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 4, res.Usage.TotalTokens)
}

func TestDecode_EmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	res, err := Decode(strings.NewReader(frame("a")+frame("b")+"data: [DONE]\n"), func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", res.Text)
}

// The writer only sends the second frame after the first delta was emitted,
// so Decode would deadlock if it buffered ahead of emission.
func TestDecode_EmitsBeforeNextRead(t *testing.T) {
	pr, pw := io.Pipe()
	emitted := make(chan string, 4)

	go func() {
		defer pw.Close()
		if _, err := io.WriteString(pw, frame("first")); err != nil {
			return
		}
		select {
		case <-emitted:
		case <-time.After(5 * time.Second):
			return
		}
		_, _ = io.WriteString(pw, frame("second")+"data: [DONE]\n")
	}()

	var got []string
	res, err := Decode(pr, func(s string) error {
		got = append(got, s)
		if s == "first" {
			emitted <- s
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "firstsecond", res.Text)
	assert.Equal(t, []string{"first", "second"}, got)
}
