package prompt

// 出力寸法のグローバル既定値です。ワールド定義側で上書きできます。
const (
	// DefaultCardWidth / DefaultCardHeight は縦型カード出力の既定寸法です。
	DefaultCardWidth  = 1728
	DefaultCardHeight = 2304
	// DefaultSceneWidth / DefaultSceneHeight は横型シーン出力の既定寸法です。
	DefaultSceneWidth  = 2560
	DefaultSceneHeight = 1440
)

// 生成の基礎構造を定義するテンプレート定数
const (
	// PixelArtHeader は全出力に共通する描画様式の指示です。
	PixelArtHeader = `### GLOBAL VISUAL STYLE ###
- RENDERING: Detailed retro pixel art. Crisp pixel clusters, limited palette, strong silhouette.
- NO photorealism, NO 3D render, NO painterly blending.
- SUBJECT: Reinterpret the person in the attached photo as a pixel-art character. Keep recognizable hair, face shape and clothing colors.`

	// CardCompositionRules は縦型カードのレイアウト指示です。
	CardCompositionRules = `### CARD COMPOSITION ###
- OUTPUT: ONE single portrait collectible card image, full-bleed artwork edge to edge.
- The character is the hero of the card: waist-up, centered, facing slightly off-camera.
- Leave breathing room above the head; the top quarter of the frame stays clear of text.`

	// SceneCompositionRules は横型シーンのレイアウト指示です。
	SceneCompositionRules = `### SCENE COMPOSITION ###
- OUTPUT: ONE single landscape image that looks like a paused retro game screenshot.
- The character from the photo appears in-world, mid-action, smaller in frame.
- The HUD values listed below are drawn as crisp pixel UI on top of the scene.`

	// hardenSuffix は2回目の試行でのみ付与される厳格化指示です。
	// バイナリデータや画像素材は一切含みません（付与しても構造検証を壊さないこと）。
	hardenSuffix = `### STRICT RENDER RULES ###
- Render every text block above CHARACTER FOR CHARACTER, exactly as written.
- ABSOLUTELY NO placeholder tokens: no {name}, no [TITLE], no lorem ipsum, no XXXX.
- Do not invent, translate or reword any listed text.`
)
