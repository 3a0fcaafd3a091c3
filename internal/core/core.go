/*
Core documents the synthetic market data pipeline.

# Module
  - broadcast hub: generates random-walk prices & sentiment scores then fans them out over TCP
  - price relay: subscribes the price channel and mirrors every update into the shared price table
  - decision engine: joins news scores with table prices and emits order intents for one symbol
  - order sink: receives order intents, confirms them and archives them

# Source
 1. price ticks from the hub price channel
 2. sentiment scores from the hub news channel
 3. latest prices from the shared memory table

# Produce
  - framed order intents to the order sink

# Sharded
  - one decision engine per trade symbol
*/
package core
