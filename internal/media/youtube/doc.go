// Package youtube resolves video and playlist metadata natively through
// github.com/kkdai/youtube/v2. It is selected with fetcher.metadata_backend =
// "native" and avoids a yt-dlp process per metadata lookup. Netscape cookie
// files are converted into a cookie jar for the HTTP client.
package youtube
