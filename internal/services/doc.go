// Package services talks to the music services tracks are resolved against, and to the sources tracks come from.
//
// # Service Interface
//
// Every destination implements [Service]: a [Searcher] used by the resolver, a [PlaylistWriter]
// used once per run, Authenticate and Name. Search returns (nil, nil) when the service has
// nothing for a track; only transport or API failures are errors.
//
// # Spotify and Tidal
//
// [SpotifyService] and [TidalService] hold two [oauth2] token sources: an app token from the
// client credentials grant for searches, and a user token from a stored refresh token for
// playlist writes. Without a refresh token Search still works and ReplacePlaylist returns
// [shared.ErrNoRefreshToken].
//
// Playlist writes are chunked to the API limits: 100 URIs per Spotify request, 20 items per Tidal request.
//
// # YouTube Music
//
// [YouTubeService] talks to a local proxy wrapping ytmusicapi. The proxy owns authentication.
//
// # Sources
//
// [RedditSource] reads a subreddit listing and extracts tracks from post titles with a regular
// expression. [FileSource] reads "Artist - Title" lines.
//
// # Error Handling
//
// Non-2xx responses become [*RequestError], which matches [shared.ErrAPIRequest] with [errors.Is].
package services
