package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("[]")
	const want = "4f53cda18c2baa0c0354bb5f9a3ecbe5ed12ab4d8e11ba873c2f11161202b945"
	if got := Sum([]byte("[]")); got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different content must hash differently")
	}
}

func TestEqual(t *testing.T) {
	data := []byte(`[{"id":"a1"}]`)
	if !Equal(data, Sum(data)) {
		t.Error("Equal should match its own sum")
	}
	if Equal(data, Sum([]byte("[]"))) {
		t.Error("Equal matched a foreign sum")
	}
	if Equal(nil, "") {
		t.Error("empty sum must never match")
	}
}
