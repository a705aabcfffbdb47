package webhook

import "testing"

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload GatewayPayload
		want    string
	}{
		{
			name:    "plain text",
			payload: GatewayPayload{Body: " quero 2kg de arroz "},
			want:    "quero 2kg de arroz",
		},
		{
			name: "image with caption",
			payload: GatewayPayload{
				Body:     "segue o comprovante",
				HasMedia: true,
				Media:    &MediaInfo{URL: "https://gw.example/m/1.jpg", MimeType: "image/jpeg"},
			},
			want: "segue o comprovante [MEDIA_URL: https://gw.example/m/1.jpg]",
		},
		{
			name: "image without caption",
			payload: GatewayPayload{
				HasMedia: true,
				MediaURL: "https://gw.example/m/2.png",
				Media:    &MediaInfo{MimeType: "image/png"},
			},
			want: "[MEDIA_URL: https://gw.example/m/2.png]",
		},
		{
			name: "non-image media is dropped",
			payload: GatewayPayload{
				Body:     "áudio",
				HasMedia: true,
				Media:    &MediaInfo{URL: "https://gw.example/m/3.ogg", MimeType: "audio/ogg"},
			},
			want: "áudio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildMessage(&tt.payload); got != tt.want {
				t.Errorf("buildMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
